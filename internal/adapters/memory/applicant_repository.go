package memory

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type applicantRepository struct {
	mu         sync.RWMutex
	applicants map[int64]domain.Applicant
	now        func() time.Time
	log        zerolog.Logger
}

var _ ports.ApplicantRepository = (*applicantRepository)(nil) // Ensure compliance

// NewApplicantRepository creates a process-local repository. Records live
// as long as the process does.
func NewApplicantRepository(baseLogger *zerolog.Logger) ports.ApplicantRepository {
	return NewApplicantRepositoryWithClock(time.Now, baseLogger)
}

// NewApplicantRepositoryWithClock is NewApplicantRepository with a custom
// time source for activity stamps.
func NewApplicantRepositoryWithClock(now func() time.Time, baseLogger *zerolog.Logger) ports.ApplicantRepository {
	return &applicantRepository{
		applicants: make(map[int64]domain.Applicant),
		now:        now,
		log:        baseLogger.With().Str("component", "memory_applicant_repo").Logger(),
	}
}

func (r *applicantRepository) Get(ctx context.Context, id int64) (*domain.Applicant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.applicants[id]
	if !ok {
		return nil, nil
	}
	return clone(a), nil
}

func (r *applicantRepository) Create(ctx context.Context, id int64, handle string, locale domain.Locale) (*domain.Applicant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.applicants[id]; ok {
		return nil, ports.ErrApplicantExists
	}
	a := domain.NewApplicant(id, handle, locale, r.now().UTC())
	r.applicants[id] = *a
	r.log.Debug().Int64("applicant_id", id).Msg("Applicant created")
	return clone(*a), nil
}

func (r *applicantRepository) ApplyPatch(ctx context.Context, id int64, patch domain.ApplicantPatch) (*domain.Applicant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.applicants[id]
	if !ok {
		return nil, ports.ErrApplicantNotFound
	}
	a = patch.Apply(a, r.now().UTC())
	r.applicants[id] = a
	return clone(a), nil
}

func (r *applicantRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.applicants[id]; !ok {
		return ports.ErrApplicantNotFound
	}
	delete(r.applicants, id)
	return nil
}

func (r *applicantRepository) FindByState(ctx context.Context, state domain.ApplicantState) ([]*domain.Applicant, error) {
	return r.filter(func(a domain.Applicant) bool { return a.State == state }), nil
}

func (r *applicantRepository) FindIncomplete(ctx context.Context) ([]*domain.Applicant, error) {
	return r.filter(func(a domain.Applicant) bool { return a.State != domain.StateCompleted }), nil
}

func (r *applicantRepository) FindInactiveSince(ctx context.Context, cutoff time.Duration) ([]*domain.Applicant, error) {
	before := r.now().Add(-cutoff)
	return r.filter(func(a domain.Applicant) bool {
		return a.State != domain.StateCompleted && a.LastActivityAt.Before(before)
	}), nil
}

func (r *applicantRepository) Stats(ctx context.Context, activeSince time.Time) (*domain.ApplicantStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := &domain.ApplicantStats{ByState: make(map[domain.ApplicantState]int)}
	for _, a := range r.applicants {
		stats.Total++
		stats.ByState[a.State]++
		if a.State == domain.StateCompleted {
			stats.Completed++
		}
		if !a.LastActivityAt.Before(activeSince) {
			stats.Active++
		}
	}
	return stats, nil
}

// filter returns matching applicants ordered by creation time, then id.
func (r *applicantRepository) filter(keep func(domain.Applicant) bool) []*domain.Applicant {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.Applicant
	for _, a := range r.applicants {
		if keep(a) {
			out = append(out, clone(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// clone copies the pointer fields so callers never share storage with the map.
func clone(a domain.Applicant) *domain.Applicant {
	if a.LedgerAddress != nil {
		addr := *a.LedgerAddress
		a.LedgerAddress = &addr
	}
	if a.RecommenderHandle != nil {
		rec := *a.RecommenderHandle
		a.RecommenderHandle = &rec
	}
	return &a
}
