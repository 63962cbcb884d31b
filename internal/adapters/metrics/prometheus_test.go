package metrics

import (
	"MTLAJoin/internal/adapters/eventbus"
	"MTLAJoin/internal/core/domain"
	"MTLAJoin/internal/core/ports"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncIntent("start")
	m.IncIntent("start")
	m.IncTransition(domain.StateCheckingHandle, domain.StateAgreement)
	m.IncTransition(domain.StateAgreement, domain.StateAgreement)
	m.IncCompleted()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Intents.WithLabelValues("start")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("checking_username", "agreement")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.Transitions.WithLabelValues("agreement", "agreement")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Completed))
}

func TestMetrics_ObserveLedgerCall(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveLedgerCall("horizon", 100*time.Millisecond, nil)
	m.ObserveLedgerCall("feed", time.Second, errors.New("timeout"))

	assert.Equal(t, 0.0, testutil.ToFloat64(m.LedgerFailures.WithLabelValues("horizon")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.LedgerFailures.WithLabelValues("feed")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.LedgerDuration))
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.IncIntent("start")
		m.IncTransition(domain.StateAgreement, domain.StateCompleted)
		m.IncCompleted()
		m.ObserveLedgerCall("feed", time.Second, nil)
	})
}

func TestMetrics_CountsRestartsFromBus(t *testing.T) {
	m := New(prometheus.NewRegistry())
	nopLogger := zerolog.Nop()
	bus := eventbus.NewInMemoryEventBus(&nopLogger)
	m.Subscribe(bus)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, ports.TopicApplicantRestarted, ports.ApplicantRestartedEvent{ApplicantID: 1, FromState: "checking_address"}))
	require.NoError(t, bus.Publish(ctx, ports.TopicApplicantRestarted, ports.ApplicantRestartedEvent{ApplicantID: 2, FromState: "checking_address"}))
	require.NoError(t, bus.Publish(ctx, ports.TopicApplicantRestarted, ports.ApplicantRestartedEvent{ApplicantID: 3, FromState: "completed"}))
	require.NoError(t, bus.Close(ctx))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Restarts.WithLabelValues("checking_address")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Restarts.WithLabelValues("completed")))
}

func TestMetrics_RejectsForeignRestartPayload(t *testing.T) {
	m := New(prometheus.NewRegistry())

	err := m.HandleApplicantRestarted(context.Background(), ports.Event{Topic: ports.TopicApplicantRestarted, Data: "oops"})

	assert.Error(t, err)
	assert.Equal(t, 0, testutil.CollectAndCount(m.Restarts))
}
