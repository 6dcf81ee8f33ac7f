package events

import (
	"context"
	"time"
)

// CompletedEvent announces a finished simulation.
type CompletedEvent struct {
	SimulationID      string    `json:"simulationId"`
	IdeaTitle         string    `json:"ideaTitle"`
	Scenarios         []string  `json:"scenarios"`
	RealisticMean     *float64  `json:"realisticMean"`
	ProbabilityOfLoss *float64  `json:"probabilityOfLoss"`
	GeneratedAt       time.Time `json:"generatedAt"`
}

// Publisher emits simulation lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, evt CompletedEvent) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (NoopPublisher) Publish(context.Context, CompletedEvent) error { return nil }
func (NoopPublisher) Close() error                                  { return nil }
