package postgres

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type applicantRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.ApplicantRepository = (*applicantRepository)(nil) // Ensure compliance

// NewApplicantRepository creates a new repository for applicant operations.
func NewApplicantRepository(db *DB, baseLogger *zerolog.Logger) ports.ApplicantRepository {
	return &applicantRepository{
		db:  db,
		log: baseLogger.With().Str("component", "applicant_repo").Logger(),
	}
}

// applicantQueryCols is the list of columns for scanning
const applicantQueryCols = `
	id, handle, locale, state, has_handle, agreed_to_terms,
	has_trustline, has_recommendation, ledger_address, recommender_handle,
	created_at, last_activity_at
`

// scanApplicant is a helper to scan a row into an Applicant struct
func (r *applicantRepository) scanApplicant(row pgx.Row) (*domain.Applicant, error) {
	var a domain.Applicant
	err := row.Scan(
		&a.ID,
		&a.Handle,
		&a.Locale,
		&a.State,
		&a.Flags.HasHandle,
		&a.Flags.AgreedToTerms,
		&a.Flags.HasTrustline,
		&a.Flags.HasRecommendation,
		&a.LedgerAddress,
		&a.RecommenderHandle,
		&a.CreatedAt,
		&a.LastActivityAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err // Return specific error
		}
		r.log.Error().Err(err).Msg("Failed to scan applicant row")
		return nil, err
	}
	return &a, nil
}

func (r *applicantRepository) scanApplicants(rows pgx.Rows) ([]*domain.Applicant, error) {
	defer rows.Close()

	var out []*domain.Applicant
	for rows.Next() {
		a, err := r.scanApplicant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get finds an applicant by Telegram ID.
func (r *applicantRepository) Get(ctx context.Context, id int64) (*domain.Applicant, error) {
	query := `SELECT ` + applicantQueryCols + ` FROM applicants WHERE id = $1`

	a, err := r.scanApplicant(r.db.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Return nil, nil for "not found"
		}
		return nil, err
	}
	return a, nil
}

// Create inserts a new applicant in the initial state. The primary key
// enforces uniqueness.
func (r *applicantRepository) Create(ctx context.Context, id int64, handle string, locale domain.Locale) (*domain.Applicant, error) {
	query := `
		INSERT INTO applicants (id, handle, locale, state)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
		RETURNING ` + applicantQueryCols

	a, err := r.scanApplicant(r.db.pool.QueryRow(ctx, query, id, handle, locale, domain.StateCheckingHandle))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrApplicantExists
		}
		r.log.Error().Err(err).Int64("applicant_id", id).Msg("Failed to insert new applicant")
		return nil, err
	}
	return a, nil
}

// ApplyPatch updates only the columns named by the patch, in one statement.
func (r *applicantRepository) ApplyPatch(ctx context.Context, id int64, patch domain.ApplicantPatch) (*domain.Applicant, error) {
	set := patchColumns(patch)
	set.add("last_activity_at", time.Now().UTC())

	query := fmt.Sprintf(
		`UPDATE applicants SET %s WHERE id = $%d RETURNING %s`,
		set.clause(), len(set.cols)+1, applicantQueryCols,
	)
	args := append(set.vals, id)

	a, err := r.scanApplicant(r.db.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrApplicantNotFound
		}
		r.log.Error().Err(err).Int64("applicant_id", id).Msg("Failed to update applicant")
		return nil, err
	}
	return a, nil
}

// Delete removes an applicant.
func (r *applicantRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.pool.Exec(ctx, `DELETE FROM applicants WHERE id = $1`, id)
	if err != nil {
		r.log.Error().Err(err).Int64("applicant_id", id).Msg("Failed to delete applicant")
		return err
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrApplicantNotFound
	}
	return nil
}

func (r *applicantRepository) FindByState(ctx context.Context, state domain.ApplicantState) ([]*domain.Applicant, error) {
	query := `SELECT ` + applicantQueryCols + ` FROM applicants WHERE state = $1 ORDER BY created_at, id`
	return r.query(ctx, query, state)
}

func (r *applicantRepository) FindIncomplete(ctx context.Context) ([]*domain.Applicant, error) {
	query := `SELECT ` + applicantQueryCols + ` FROM applicants WHERE state <> $1 ORDER BY created_at, id`
	return r.query(ctx, query, domain.StateCompleted)
}

func (r *applicantRepository) FindInactiveSince(ctx context.Context, cutoff time.Duration) ([]*domain.Applicant, error) {
	query := `SELECT ` + applicantQueryCols + `
		FROM applicants
		WHERE state <> $1 AND last_activity_at < $2
		ORDER BY last_activity_at, id`
	return r.query(ctx, query, domain.StateCompleted, time.Now().UTC().Add(-cutoff))
}

func (r *applicantRepository) query(ctx context.Context, query string, args ...any) ([]*domain.Applicant, error) {
	rows, err := r.db.pool.Query(ctx, query, args...)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query applicants")
		return nil, err
	}
	return r.scanApplicants(rows)
}

// Stats counts applicants overall, by state and by recent activity.
func (r *applicantRepository) Stats(ctx context.Context, activeSince time.Time) (*domain.ApplicantStats, error) {
	stats := &domain.ApplicantStats{ByState: make(map[domain.ApplicantState]int)}

	rows, err := r.db.pool.Query(ctx, `
		SELECT state,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE last_activity_at >= $1)
		FROM applicants
		GROUP BY state`, activeSince)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to query applicant stats")
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var state domain.ApplicantState
		var total, active int
		if err := rows.Scan(&state, &total, &active); err != nil {
			return nil, err
		}
		stats.ByState[state] = total
		stats.Total += total
		stats.Active += active
		if state == domain.StateCompleted {
			stats.Completed = total
		}
	}
	return stats, rows.Err()
}

// setList is an ordered column assignment list. Assigning a column twice
// keeps the last value, since Postgres rejects duplicate assignments.
type setList struct {
	cols []string
	vals []any
}

func (s *setList) add(col string, val any) {
	for i, c := range s.cols {
		if c == col {
			s.vals[i] = val
			return
		}
	}
	s.cols = append(s.cols, col)
	s.vals = append(s.vals, val)
}

func (s *setList) clause() string {
	parts := make([]string, len(s.cols))
	for i, c := range s.cols {
		parts[i] = fmt.Sprintf("%s = $%d", c, i+1)
	}
	return strings.Join(parts, ", ")
}

// patchColumns maps a patch onto column assignments.
func patchColumns(p domain.ApplicantPatch) *setList {
	set := &setList{}
	if p.Reset {
		set.add("state", domain.StateCheckingHandle)
		set.add("has_handle", false)
		set.add("agreed_to_terms", false)
		set.add("has_trustline", false)
		set.add("has_recommendation", false)
		set.add("ledger_address", nil)
		set.add("recommender_handle", nil)
	}
	if p.Handle != nil {
		set.add("handle", *p.Handle)
	}
	if p.Locale != nil {
		set.add("locale", *p.Locale)
	}
	if p.State != nil {
		set.add("state", *p.State)
	}
	if p.HasHandle != nil {
		set.add("has_handle", *p.HasHandle)
	}
	if p.AgreedToTerms != nil {
		set.add("agreed_to_terms", *p.AgreedToTerms)
	}
	if p.HasTrustline != nil {
		set.add("has_trustline", *p.HasTrustline)
	}
	if p.HasRecommendation != nil {
		set.add("has_recommendation", *p.HasRecommendation)
	}
	if p.LedgerAddress != nil {
		set.add("ledger_address", *p.LedgerAddress)
	}
	if p.RecommenderHandle != nil {
		if rec := *p.RecommenderHandle; rec != "" {
			set.add("recommender_handle", rec)
		} else {
			set.add("recommender_handle", nil)
		}
	}
	return set
}
