// Package events publishes reconciliation outcomes to downstream consumers
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Event types emitted by the reconciliation pipeline.
const (
	EventDecisionMade      = "decision.made"
	EventDecisionApproved  = "decision.approved"
	EventDecisionDiscarded = "decision.discarded"
	EventBatchCompleted    = "batch.completed"
)

// DecisionPublisher is the producer surface the emitter needs.
type DecisionPublisher interface {
	PublishDecisionEvent(ctx context.Context, event *kafka.DecisionEvent) error
	PublishBatchCompleted(ctx context.Context, event *kafka.BatchCompletedEvent) error
}

// Emitter publishes decision and batch lifecycle events. Publishing is
// best-effort: a failed emit is logged and never fails the operation that
// produced the decision.
type Emitter struct {
	producer DecisionPublisher
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer DecisionPublisher, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// DecisionMade publishes a decision.made event
func (e *Emitter) DecisionMade(ctx context.Context, decision *models.Decision) {
	e.publishDecision(ctx, EventDecisionMade, decision)
}

// DecisionApproved publishes a decision.approved event
func (e *Emitter) DecisionApproved(ctx context.Context, decision *models.Decision) {
	e.publishDecision(ctx, EventDecisionApproved, decision)
}

// DecisionDiscarded publishes a decision.discarded event
func (e *Emitter) DecisionDiscarded(ctx context.Context, decision *models.Decision) {
	e.publishDecision(ctx, EventDecisionDiscarded, decision)
}

// BatchCompleted publishes a batch.completed event with the run summary
func (e *Emitter) BatchCompleted(ctx context.Context, tenantID string, batchID string, summary *models.BatchSummary) {
	event := &kafka.BatchCompletedEvent{
		EventType: EventBatchCompleted,
		TenantID:  tenantID,
		BatchID:   batchID,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
	}
	if err := e.producer.PublishBatchCompleted(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"batch_id": batchID}).Warn("Failed to emit batch completed event")
	}
}

func (e *Emitter) publishDecision(ctx context.Context, eventType string, decision *models.Decision) {
	event := &kafka.DecisionEvent{
		EventType:   eventType,
		TenantID:    decision.TenantID,
		DecisionID:  decision.ID,
		SourceID:    decision.SourceID,
		PersonID:    decision.PersonID,
		Disposition: decision.Disposition,
		Confidence:  decision.Confidence,
		Timestamp:   time.Now().UTC(),
	}
	if err := e.producer.PublishDecisionEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"decision_id": decision.ID}).Warn("Failed to emit decision event")
	}
}
