package onboarding

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"

	"github.com/rs/zerolog"
)

// Evaluator turns ledger lookups into admission decisions.
type Evaluator struct {
	gateway ports.LedgerGateway
	log     zerolog.Logger
}

// NewEvaluator creates an evaluator backed by the given gateway.
func NewEvaluator(gateway ports.LedgerGateway, baseLogger *zerolog.Logger) *Evaluator {
	return &Evaluator{
		gateway: gateway,
		log:     baseLogger.With().Str("component", "eligibility_evaluator").Logger(),
	}
}

// Evaluate looks the address up. Gateway failures are never returned: they
// degrade to an unreachable address carrying the cause in Err.
func (e *Evaluator) Evaluate(ctx context.Context, address string) domain.AccountInfo {
	log := e.log.With().Str("address", address).Logger()

	info, err := e.gateway.GetAccountInfo(ctx, address)
	if err != nil {
		log.Error().Err(err).Msg("Ledger lookup failed, treating address as unreachable")
		return domain.AccountInfo{Err: err.Error()}
	}
	if info.Recommendation.Err != "" {
		log.Warn().Str("feed_error", info.Recommendation.Err).Msg("Recommendation feed unavailable")
	}

	log.Info().
		Bool("exists", info.Exists).
		Bool("trustline", info.HasTrustline).
		Bool("verified_recommendation", info.Recommendation.HasVerifiedRecommendation).
		Bool("any_recommendation", info.Recommendation.HasAnyRecommendation).
		Msg("Address evaluated")
	return info
}

// AggregateIssues lists the unmet admission conditions. The order is always
// handle, agreement, trustline, recommendation.
func AggregateIssues(flags domain.Flags, info domain.AccountInfo) []domain.Issue {
	var issues []domain.Issue
	if !flags.HasHandle {
		issues = append(issues, domain.Issue{Kind: domain.IssueMissingHandle})
	}
	if !flags.AgreedToTerms {
		issues = append(issues, domain.Issue{Kind: domain.IssueMissingAgreement})
	}
	if !info.HasTrustline {
		issues = append(issues, domain.Issue{Kind: domain.IssueMissingTrustline})
	}
	if !info.Recommendation.HasVerifiedRecommendation {
		issues = append(issues, domain.Issue{
			Kind:       domain.IssueMissingOrUnverifiedRecommendation,
			Unverified: info.Recommendation.HasAnyRecommendation,
		})
	}
	return issues
}

// Admit is the admission predicate.
func Admit(flags domain.Flags, address string, info domain.AccountInfo) bool {
	return flags.HasHandle &&
		flags.AgreedToTerms &&
		address != "" &&
		info.HasTrustline &&
		info.Recommendation.HasVerifiedRecommendation
}

// verificationPatch records what the ledger said about the current address.
// The recommender is always written so one left over from an earlier
// address is cleared.
func verificationPatch(info domain.AccountInfo) domain.ApplicantPatch {
	var recommender string
	if rec, ok := info.Recommendation.FirstVerified(); ok {
		recommender = rec.AccountID
	}
	return domain.ApplicantPatch{
		HasTrustline:      boolPtr(info.HasTrustline),
		HasRecommendation: boolPtr(info.Recommendation.HasVerifiedRecommendation),
		RecommenderHandle: stringPtr(recommender),
	}
}

func boolPtr(b bool) *bool { return &b }

func stringPtr(s string) *string { return &s }
