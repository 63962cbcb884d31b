package ports

import (
	"MTLAJoin/internal/core/domain"
	"time"
)

// OnboardingMetrics records what happens in the onboarding flow.
// Implementations must tolerate being called from many goroutines.
type OnboardingMetrics interface {
	IncIntent(kind string)
	IncTransition(from, to domain.ApplicantState)
	IncCompleted()
	ObserveLedgerCall(source string, d time.Duration, err error)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) IncIntent(string) {}
func (NopMetrics) IncTransition(domain.ApplicantState, domain.ApplicantState) {}
func (NopMetrics) IncCompleted() {}
func (NopMetrics) ObserveLedgerCall(string, time.Duration, error) {}
