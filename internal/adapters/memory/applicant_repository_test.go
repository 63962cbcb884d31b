package memory

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRepo() (ports.ApplicantRepository, *fakeClock) {
	nopLogger := zerolog.Nop()
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	return NewApplicantRepositoryWithClock(clock.Now, &nopLogger), clock
}

func TestApplicantRepository_CreateAndGet(t *testing.T) {
	repo, clock := newTestRepo()
	ctx := context.Background()

	created, err := repo.Create(ctx, 1, "alice", domain.LocaleRU)
	require.NoError(t, err)
	assert.Equal(t, domain.StateCheckingHandle, created.State)
	assert.Equal(t, clock.Now(), created.CreatedAt)
	assert.Equal(t, created.CreatedAt, created.LastActivityAt)

	got, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	_, err = repo.Create(ctx, 1, "again", domain.LocaleEN)
	assert.ErrorIs(t, err, ports.ErrApplicantExists)

	missing, err := repo.Get(ctx, 2)
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestApplicantRepository_ReturnedRecordsAreCopies(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()
	_, err := repo.Create(ctx, 1, "alice", domain.LocaleEN)
	require.NoError(t, err)

	addr := "GADDR"
	got, err := repo.ApplyPatch(ctx, 1, domain.ApplicantPatch{LedgerAddress: &addr})
	require.NoError(t, err)
	*got.LedgerAddress = "GCHANGED"
	got.Handle = "mallory"

	again, err := repo.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "GADDR", again.Address())
	assert.Equal(t, "alice", again.Handle)
}

func TestApplicantRepository_ApplyPatchStampsActivity(t *testing.T) {
	repo, clock := newTestRepo()
	ctx := context.Background()
	created, err := repo.Create(ctx, 1, "alice", domain.LocaleEN)
	require.NoError(t, err)

	clock.Advance(time.Hour)
	yes := true
	updated, err := repo.ApplyPatch(ctx, 1, domain.ApplicantPatch{HasHandle: &yes})
	require.NoError(t, err)

	assert.True(t, updated.Flags.HasHandle)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, clock.Now(), updated.LastActivityAt)

	_, err = repo.ApplyPatch(ctx, 99, domain.ApplicantPatch{HasHandle: &yes})
	assert.ErrorIs(t, err, ports.ErrApplicantNotFound)
}

func TestApplicantRepository_Delete(t *testing.T) {
	repo, _ := newTestRepo()
	ctx := context.Background()
	_, err := repo.Create(ctx, 1, "alice", domain.LocaleEN)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, 1))
	assert.ErrorIs(t, repo.Delete(ctx, 1), ports.ErrApplicantNotFound)

	got, err := repo.Get(ctx, 1)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestApplicantRepository_Queries(t *testing.T) {
	repo, clock := newTestRepo()
	ctx := context.Background()

	// 3 is created first so ordering by creation time is visible.
	for _, id := range []int64{3, 1, 2} {
		_, err := repo.Create(ctx, id, "user", domain.LocaleEN)
		require.NoError(t, err)
		clock.Advance(time.Minute)
	}
	completed := domain.StateCompleted
	_, err := repo.ApplyPatch(ctx, 2, domain.ApplicantPatch{State: &completed})
	require.NoError(t, err)

	clock.Advance(8 * 24 * time.Hour)
	agreement := domain.StateAgreement
	_, err = repo.ApplyPatch(ctx, 1, domain.ApplicantPatch{State: &agreement})
	require.NoError(t, err)

	incomplete, err := repo.FindIncomplete(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1}, ids(incomplete))

	inactive, err := repo.FindInactiveSince(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, []int64{3}, ids(inactive), "completed and recently active applicants are excluded")

	byState, err := repo.FindByState(ctx, domain.StateAgreement)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids(byState))

	stats, err := repo.Stats(ctx, clock.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.ByState[domain.StateCheckingHandle])
	assert.Equal(t, 1, stats.ByState[domain.StateAgreement])
	assert.Equal(t, 1, stats.ByState[domain.StateCompleted])
}

func ids(list []*domain.Applicant) []int64 {
	out := make([]int64, 0, len(list))
	for _, a := range list {
		out = append(out, a.ID)
	}
	return out
}
