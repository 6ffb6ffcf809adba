// Package processor consumes contact batch messages and runs reconciliation
package processor

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/internal/repositories/matchcriterion"
	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// BatchProcessor handles incoming contact batch messages from Kafka
type BatchProcessor struct {
	logger       ectologger.Logger
	orchestrator *batch.Orchestrator
	criteria     *matchcriterion.Repository
	emitter      *events.Emitter
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(
	logger ectologger.Logger,
	orchestrator *batch.Orchestrator,
	criteria *matchcriterion.Repository,
	emitter *events.Emitter,
) *BatchProcessor {
	return &BatchProcessor{
		logger:       logger,
		orchestrator: orchestrator,
		criteria:     criteria,
		emitter:      emitter,
	}
}

// ProcessMessage reconciles the batch carried by one Kafka message.
// Returning an error leaves the message uncommitted; the retry is safe
// because records decided on the first attempt are skipped.
func (p *BatchProcessor) ProcessMessage(ctx context.Context, msg *kafka.IncomingMessage) error {
	ctx, span := tracing.StartSpan(ctx, "BatchProcessor.ProcessMessage")
	defer span.End()

	tenantID := msg.GetTenantID()
	batchID := msg.GetBatchID()

	log := p.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"batch_id":  batchID,
	})

	if tenantID == "" {
		// Nothing to retry against; treat as handled so the offset commits.
		log.Error("Batch message has no tenant id, dropping")
		return nil
	}
	if msg.Batch == nil || len(msg.Batch.Records) == 0 {
		log.Warn("Batch message has no records, dropping")
		return nil
	}

	for i := range msg.Batch.Records {
		if msg.Batch.Records[i].Source == "" {
			msg.Batch.Records[i].Source = msg.Batch.Source
		}
	}

	criteria, err := p.criteria.ListActive(ctx, tenantID)
	if err != nil {
		log.WithError(err).Error("Failed to load active criteria")
		return err
	}

	summary, err := p.orchestrator.ProcessBatch(ctx, tenantID, msg.Batch.Records, criteria)
	if err != nil {
		log.WithError(err).Error("Failed to process contact batch")
		return err
	}

	if p.emitter != nil {
		p.emitter.BatchCompleted(ctx, tenantID, batchID, summary)
	}

	log.WithFields(map[string]any{
		"processed": summary.Processed,
		"decided":   summary.Decided(),
		"skipped":   summary.Skipped,
		"errors":    len(summary.Errors),
	}).Info("Contact batch processed")

	return nil
}
