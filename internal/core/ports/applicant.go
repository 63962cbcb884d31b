package ports

import (
	"MTLAJoin/internal/core/domain"
	"context"
	"errors"
	"time"
)

var (
	// ErrApplicantExists is returned by Create when the id is already taken.
	ErrApplicantExists = errors.New("applicant already exists")
	// ErrApplicantNotFound is returned by Update and Delete for unknown ids.
	ErrApplicantNotFound = errors.New("applicant not found")
)

// ApplicantRepository defines the persistence operations for Applicants.
// Writes are last-writer-wins; callers serialize updates per applicant.
type ApplicantRepository interface {
	// Get finds an applicant by id. It returns nil, nil when none exists.
	Get(ctx context.Context, id int64) (*domain.Applicant, error)

	// Create saves a new applicant in the initial state.
	Create(ctx context.Context, id int64, handle string, locale domain.Locale) (*domain.Applicant, error)

	// ApplyPatch merges the patch into the stored record and stamps
	// LastActivityAt. It returns the record as persisted.
	ApplyPatch(ctx context.Context, id int64, patch domain.ApplicantPatch) (*domain.Applicant, error)

	// Delete removes the applicant. Administrative use only.
	Delete(ctx context.Context, id int64) error

	FindByState(ctx context.Context, state domain.ApplicantState) ([]*domain.Applicant, error)

	// FindIncomplete returns every applicant not in the completed state,
	// oldest first.
	FindIncomplete(ctx context.Context) ([]*domain.Applicant, error)

	// FindInactiveSince returns incomplete applicants whose last activity
	// is older than now minus cutoff.
	FindInactiveSince(ctx context.Context, cutoff time.Duration) ([]*domain.Applicant, error)

	// Stats counts applicants; activeSince bounds the "active" count.
	Stats(ctx context.Context, activeSince time.Time) (*domain.ApplicantStats, error)
}
