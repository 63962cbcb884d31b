package metrics

import (
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the onboarding flow.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	Intents        *prometheus.CounterVec
	Transitions    *prometheus.CounterVec
	Completed      prometheus.Counter
	Restarts       *prometheus.CounterVec
	LedgerDuration *prometheus.HistogramVec
	LedgerFailures *prometheus.CounterVec
}

var _ ports.OnboardingMetrics = (*Metrics)(nil) // Ensure compliance

// New registers all onboarding metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Intents: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mtla_onboarding_intents_total",
			Help: "Applicant intents received, by kind",
		}, []string{"kind"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mtla_onboarding_transitions_total",
			Help: "Applicant state transitions",
		}, []string{"from", "to"}),
		Completed: f.NewCounter(prometheus.CounterOpts{
			Name: "mtla_onboarding_completed_total",
			Help: "Applicants that finished onboarding",
		}),
		Restarts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mtla_onboarding_restarts_total",
			Help: "Attempts restarted by applicants, by the state they left",
		}, []string{"from"}),
		LedgerDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "mtla_ledger_call_duration_seconds",
			Help:    "Duration of ledger and reputation feed calls",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"source"}),
		LedgerFailures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mtla_ledger_call_failures_total",
			Help: "Failed ledger and reputation feed calls",
		}, []string{"source"}),
	}
}

func (m *Metrics) IncIntent(kind string) {
	if m == nil {
		return
	}
	m.Intents.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncTransition(from, to domain.ApplicantState) {
	if m == nil || from == to {
		return
	}
	m.Transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *Metrics) IncCompleted() {
	if m == nil {
		return
	}
	m.Completed.Inc()
}

// ObserveLedgerCall records the call duration and, when err is set, a failure.
func (m *Metrics) ObserveLedgerCall(source string, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.LedgerDuration.WithLabelValues(source).Observe(d.Seconds())
	if err != nil {
		m.LedgerFailures.WithLabelValues(source).Inc()
	}
}

// Subscribe counts restarts published on the bus.
func (m *Metrics) Subscribe(bus ports.EventBus) {
	if m == nil || bus == nil {
		return
	}
	bus.Subscribe(ports.TopicApplicantRestarted, m.HandleApplicantRestarted)
}

func (m *Metrics) HandleApplicantRestarted(_ context.Context, event ports.Event) error {
	ev, ok := event.Data.(ports.ApplicantRestartedEvent)
	if !ok {
		return fmt.Errorf("unexpected restart payload %T", event.Data)
	}
	m.Restarts.WithLabelValues(ev.FromState).Inc()
	return nil
}
