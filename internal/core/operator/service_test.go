package operator

import (
	"MTLAJoin/internal/adapters/memory"
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoAccess struct{ repo ports.ApplicantRepository }

func (d repoAccess) Lookup(ctx context.Context, id int64) (*domain.Applicant, error) {
	return d.repo.Get(ctx, id)
}

func (d repoAccess) Delete(ctx context.Context, id int64) error { return d.repo.Delete(ctx, id) }

type failingRepo struct{ ports.ApplicantRepository }

func (failingRepo) FindIncomplete(context.Context) ([]*domain.Applicant, error) {
	return nil, errors.New("connection refused")
}

func (failingRepo) Stats(context.Context, time.Time) (*domain.ApplicantStats, error) {
	return nil, errors.New("connection refused")
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func setup(t *testing.T, cfg Config) (*Service, ports.ApplicantRepository, *clock) {
	t.Helper()
	nopLogger := zerolog.Nop()
	c := &clock{t: time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)}
	repo := memory.NewApplicantRepositoryWithClock(c.now, &nopLogger)
	svc := NewService(repo, repoAccess{repo}, cfg, &nopLogger)
	svc.now = c.now
	return svc, repo, c
}

func seed(t *testing.T, repo ports.ApplicantRepository, n int) {
	t.Helper()
	for i := 1; i <= n; i++ {
		_, err := repo.Create(context.Background(), int64(i), "user", domain.LocaleEN)
		require.NoError(t, err)
	}
}

func TestService_Statistics(t *testing.T) {
	svc, repo, c := setup(t, Config{})
	ctx := context.Background()
	seed(t, repo, 2)

	c.t = c.t.Add(48 * time.Hour)
	completed := domain.StateCompleted
	_, err := repo.ApplyPatch(ctx, 2, domain.ApplicantPatch{State: &completed})
	require.NoError(t, err)

	stats, err := svc.Statistics(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Active, "only applicant 2 was active in the last day")
}

func TestService_Incomplete_Limit(t *testing.T) {
	svc, repo, _ := setup(t, Config{IncompleteLimit: 3})
	seed(t, repo, 5)

	l, err := svc.Incomplete(context.Background())

	require.NoError(t, err)
	assert.Len(t, l.Applicants, 3)
	assert.Equal(t, 5, l.Total)
	assert.Equal(t, 2, l.Remaining())
}

func TestService_Incomplete_DefaultLimit(t *testing.T) {
	svc, repo, _ := setup(t, Config{})
	seed(t, repo, DefaultIncompleteLimit+1)

	l, err := svc.Incomplete(context.Background())

	require.NoError(t, err)
	assert.Len(t, l.Applicants, DefaultIncompleteLimit)
	assert.Equal(t, 1, l.Remaining())
}

func TestService_ReminderCandidates(t *testing.T) {
	svc, repo, c := setup(t, Config{})
	seed(t, repo, 1)
	c.t = c.t.Add(3 * 24 * time.Hour)
	ctx := context.Background()

	tests := []struct {
		name     string
		days     int
		wantDays int
		wantN    int
	}{
		{name: "explicit window catches applicant", days: 2, wantDays: 2, wantN: 1},
		{name: "explicit window too wide", days: 5, wantDays: 5, wantN: 0},
		{name: "zero falls back to default", days: 0, wantDays: DefaultReminderDays, wantN: 0},
		{name: "negative falls back to default", days: -3, wantDays: DefaultReminderDays, wantN: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := svc.ReminderCandidates(ctx, tt.days)

			require.NoError(t, err)
			assert.Equal(t, tt.wantDays, l.Days)
			assert.Len(t, l.Applicants, tt.wantN)
		})
	}
}

func TestService_Details(t *testing.T) {
	svc, repo, _ := setup(t, Config{})
	ctx := context.Background()
	seed(t, repo, 1)
	yes := true
	_, err := repo.ApplyPatch(ctx, 1, domain.ApplicantPatch{HasHandle: &yes, AgreedToTerms: &yes})
	require.NoError(t, err)

	d, err := svc.Details(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Applicant.ID)
	assert.Equal(t, domain.Progress{HandleCheck: true, Agreement: true}, d.Progress)

	_, err = svc.Details(ctx, 42)
	assert.ErrorIs(t, err, ports.ErrApplicantNotFound)
}

func TestService_Reset(t *testing.T) {
	svc, repo, _ := setup(t, Config{})
	ctx := context.Background()
	seed(t, repo, 1)

	require.NoError(t, svc.Reset(ctx, 1))
	a, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, a)

	assert.ErrorIs(t, svc.Reset(ctx, 1), ports.ErrApplicantNotFound)
}

type lookupOnly struct {
	repoAccess
	ids []int64
}

func (l *lookupOnly) Lookup(ctx context.Context, id int64) (*domain.Applicant, error) {
	l.ids = append(l.ids, id)
	return l.repoAccess.Lookup(ctx, id)
}

func TestService_DetailsReadsThroughApplicantAccess(t *testing.T) {
	nopLogger := zerolog.Nop()
	repo := memory.NewApplicantRepository(&nopLogger)
	seed(t, repo, 1)
	access := &lookupOnly{repoAccess: repoAccess{repo}}
	svc := NewService(repo, access, Config{}, &nopLogger)

	d, err := svc.Details(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(1), d.Applicant.ID)
	assert.Equal(t, []int64{1}, access.ids)
}

func TestService_RepositoryErrorsAreReturned(t *testing.T) {
	nopLogger := zerolog.Nop()
	base := memory.NewApplicantRepository(&nopLogger)
	svc := NewService(failingRepo{base}, repoAccess{base}, Config{}, &nopLogger)

	_, err := svc.Statistics(context.Background())
	assert.Error(t, err)

	_, err = svc.Incomplete(context.Background())
	assert.Error(t, err)
}
