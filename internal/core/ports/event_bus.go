package ports

import (
	"context"
	"time"
)

// Topics published by the onboarding core.
const (
	TopicApplicantCompleted = "applicant:completed"
	TopicApplicantRestarted = "applicant:restarted"
)

// ApplicantCompletedEvent is published once per successful attempt.
type ApplicantCompletedEvent struct {
	ApplicantID   int64
	Handle        string
	LedgerAddress string
	Recommender   string
	CompletedAt   time.Time
}

// ApplicantRestartedEvent is published when an attempt is reset.
type ApplicantRestartedEvent struct {
	ApplicantID int64
	FromState   string
}

// Event is a generic wrapper for any event payload
type Event struct {
	Topic string
	Data  any
}

// EventHandler is a function that can handle a specific event
type EventHandler func(ctx context.Context, event Event) error

// EventBus defines the interface for our in-process pub/sub system
type EventBus interface {
	// Publish sends an event to all subscribers of a topic
	Publish(ctx context.Context, topic string, data any) error

	// Subscribe registers a handler for a specific topic
	Subscribe(topic string, handler EventHandler)
}
