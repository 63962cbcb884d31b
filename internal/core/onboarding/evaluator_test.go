package onboarding

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockLedgerGateway
type MockLedgerGateway struct {
	mock.Mock
}

var _ ports.LedgerGateway = (*MockLedgerGateway)(nil)

func (m *MockLedgerGateway) GetAccountInfo(ctx context.Context, address string) (domain.AccountInfo, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(domain.AccountInfo), args.Error(1)
}

func (m *MockLedgerGateway) GetRecommendation(ctx context.Context, address string) (domain.Recommendation, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(domain.Recommendation), args.Error(1)
}

func TestAggregateIssues_Order(t *testing.T) {
	all := AggregateIssues(domain.Flags{}, domain.AccountInfo{})
	assert.Equal(t, []domain.IssueKind{
		domain.IssueMissingHandle,
		domain.IssueMissingAgreement,
		domain.IssueMissingTrustline,
		domain.IssueMissingOrUnverifiedRecommendation,
	}, issueKinds(all))

	some := AggregateIssues(domain.Flags{AgreedToTerms: true}, domain.AccountInfo{HasTrustline: true})
	assert.Equal(t, []domain.IssueKind{
		domain.IssueMissingHandle,
		domain.IssueMissingOrUnverifiedRecommendation,
	}, issueKinds(some))

	assert.Empty(t, AggregateIssues(readyFlags, eligibleInfo))
}

func TestAggregateIssues_UnverifiedRecommendation(t *testing.T) {
	info := domain.AccountInfo{
		HasTrustline:   true,
		Recommendation: domain.Recommendation{HasAnyRecommendation: true},
	}

	issues := AggregateIssues(readyFlags, info)

	assert.Equal(t, []domain.Issue{{Kind: domain.IssueMissingOrUnverifiedRecommendation, Unverified: true}}, issues)
}

func TestAdmit_AllConjunctsRequired(t *testing.T) {
	assert.True(t, Admit(readyFlags, validAddress, eligibleInfo))

	// Flipping any single conjunct must block admission.
	cases := map[string]func() (domain.Flags, string, domain.AccountInfo){
		"handle": func() (domain.Flags, string, domain.AccountInfo) {
			f := readyFlags
			f.HasHandle = false
			return f, validAddress, eligibleInfo
		},
		"agreement": func() (domain.Flags, string, domain.AccountInfo) {
			f := readyFlags
			f.AgreedToTerms = false
			return f, validAddress, eligibleInfo
		},
		"address": func() (domain.Flags, string, domain.AccountInfo) {
			return readyFlags, "", eligibleInfo
		},
		"trustline": func() (domain.Flags, string, domain.AccountInfo) {
			i := eligibleInfo
			i.HasTrustline = false
			return readyFlags, validAddress, i
		},
		"recommendation": func() (domain.Flags, string, domain.AccountInfo) {
			i := eligibleInfo
			i.Recommendation.HasVerifiedRecommendation = false
			return readyFlags, validAddress, i
		},
	}
	for name, build := range cases {
		t.Run(name, func(t *testing.T) {
			f, addr, info := build()
			assert.False(t, Admit(f, addr, info))

			if addr == "" {
				return
			}
			out := Transition(domain.Snapshot{State: domain.StateCheckingAddress, Flags: f, LedgerAddress: addr},
				Event{Kind: EventRecheck, Info: &info})
			assert.Equal(t, domain.StateCheckingAddress, out.Next)
			assert.False(t, out.Completed)
		})
	}
}

func TestEvaluator_Evaluate(t *testing.T) {
	nopLogger := zerolog.Nop()

	t.Run("passes gateway result through", func(t *testing.T) {
		gw := new(MockLedgerGateway)
		gw.On("GetAccountInfo", mock.Anything, validAddress).Return(eligibleInfo, nil).Once()

		info := NewEvaluator(gw, &nopLogger).Evaluate(context.Background(), validAddress)

		assert.Equal(t, eligibleInfo, info)
		gw.AssertExpectations(t)
	})

	t.Run("gateway failure degrades", func(t *testing.T) {
		gw := new(MockLedgerGateway)
		gw.On("GetAccountInfo", mock.Anything, validAddress).
			Return(domain.AccountInfo{}, errors.New("horizon timeout")).Once()

		info := NewEvaluator(gw, &nopLogger).Evaluate(context.Background(), validAddress)

		assert.False(t, info.Exists)
		assert.Equal(t, "horizon timeout", info.Err)
		gw.AssertExpectations(t)
	})
}

func TestVerificationPatch(t *testing.T) {
	p := verificationPatch(domain.AccountInfo{Exists: true})

	assert.False(t, *p.HasTrustline)
	assert.False(t, *p.HasRecommendation)
	require.NotNil(t, p.RecommenderHandle, "a missing recommender must clear the stored one")
	assert.Empty(t, *p.RecommenderHandle)
}

func issueKinds(issues []domain.Issue) []domain.IssueKind {
	out := make([]domain.IssueKind, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Kind)
	}
	return out
}
