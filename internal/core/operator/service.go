package operator

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	// ActiveWindow bounds the "active" count in Statistics.
	ActiveWindow = 24 * time.Hour

	DefaultIncompleteLimit = 20
	DefaultReminderLimit   = 15
	DefaultReminderDays    = 7
)

// ApplicantAccess reads and removes single applicants. The onboarding
// service implements it so both wait for the applicant's in-flight intent.
type ApplicantAccess interface {
	Lookup(ctx context.Context, id int64) (*domain.Applicant, error)
	Delete(ctx context.Context, id int64) error
}

// Config tunes the reports. Zero values fall back to the defaults.
type Config struct {
	IncompleteLimit int
	ReminderLimit   int
	ReminderDays    int
}

// Listing is the head of a longer list; Total counts everything.
type Listing struct {
	Applicants []*domain.Applicant
	Total      int
}

// Remaining is how many applicants did not make it into the listing.
func (l Listing) Remaining() int {
	return l.Total - len(l.Applicants)
}

// ReminderListing is a Listing with the inactivity window that produced it.
type ReminderListing struct {
	Listing
	Days int
}

// Details is one applicant with its progress view.
type Details struct {
	Applicant *domain.Applicant
	Progress  domain.Progress
}

// Service answers operator queries. It never changes applicant state
// except through Reset.
type Service struct {
	repo       ports.ApplicantRepository
	applicants ApplicantAccess
	cfg        Config
	now     func() time.Time
	log     zerolog.Logger
}

func NewService(repo ports.ApplicantRepository, applicants ApplicantAccess, cfg Config, baseLogger *zerolog.Logger) *Service {
	if cfg.IncompleteLimit <= 0 {
		cfg.IncompleteLimit = DefaultIncompleteLimit
	}
	if cfg.ReminderLimit <= 0 {
		cfg.ReminderLimit = DefaultReminderLimit
	}
	if cfg.ReminderDays <= 0 {
		cfg.ReminderDays = DefaultReminderDays
	}
	return &Service{
		repo:       repo,
		applicants: applicants,
		cfg:        cfg,
		now:        time.Now,
		log:        baseLogger.With().Str("component", "operator_service").Logger(),
	}
}

// Statistics counts applicants overall, by state, and active in the last day.
func (s *Service) Statistics(ctx context.Context) (*domain.ApplicantStats, error) {
	stats, err := s.repo.Stats(ctx, s.now().Add(-ActiveWindow))
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to compute statistics")
		return nil, fmt.Errorf("statistics: %w", err)
	}
	return stats, nil
}

// Incomplete lists applicants that have not finished, oldest first.
func (s *Service) Incomplete(ctx context.Context) (Listing, error) {
	all, err := s.repo.FindIncomplete(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list incomplete applicants")
		return Listing{}, fmt.Errorf("incomplete applicants: %w", err)
	}
	return head(all, s.cfg.IncompleteLimit), nil
}

// ReminderCandidates lists incomplete applicants idle for more than days.
// A non-positive days uses the configured default.
func (s *Service) ReminderCandidates(ctx context.Context, days int) (ReminderListing, error) {
	if days <= 0 {
		days = s.cfg.ReminderDays
	}
	all, err := s.repo.FindInactiveSince(ctx, time.Duration(days)*24*time.Hour)
	if err != nil {
		s.log.Error().Err(err).Int("days", days).Msg("Failed to list reminder candidates")
		return ReminderListing{}, fmt.Errorf("reminder candidates: %w", err)
	}
	return ReminderListing{Listing: head(all, s.cfg.ReminderLimit), Days: days}, nil
}

// Details returns one applicant or ports.ErrApplicantNotFound.
func (s *Service) Details(ctx context.Context, id int64) (*Details, error) {
	a, err := s.applicants.Lookup(ctx, id)
	if err != nil {
		s.log.Error().Err(err).Int64("applicant_id", id).Msg("Failed to load applicant")
		return nil, fmt.Errorf("applicant %d: %w", id, err)
	}
	if a == nil {
		return nil, ports.ErrApplicantNotFound
	}
	return &Details{Applicant: a, Progress: a.Progress()}, nil
}

// Reset forgets the applicant; their next /start begins from scratch.
func (s *Service) Reset(ctx context.Context, id int64) error {
	if err := s.applicants.Delete(ctx, id); err != nil {
		s.log.Warn().Err(err).Int64("applicant_id", id).Msg("Failed to reset applicant")
		return err
	}
	return nil
}

func head(all []*domain.Applicant, limit int) Listing {
	l := Listing{Applicants: all, Total: len(all)}
	if len(all) > limit {
		l.Applicants = all[:limit]
	}
	return l
}
