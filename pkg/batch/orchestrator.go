// Package batch orchestrates reconciliation runs over sets of contact records
package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
	"github.com/Ramsey-B/fern/pkg/validation"
)

// DefaultCandidateLimit bounds how many registry persons are scored per
// record.
const DefaultCandidateLimit = 10

// CandidateRetriever looks up registry persons worth scoring against a
// record.
type CandidateRetriever interface {
	FindCandidates(ctx context.Context, tenantID string, record *models.ContactRecord, limit int) ([]models.Person, error)
}

// DecisionStore persists and queries match decisions.
type DecisionStore interface {
	Create(ctx context.Context, decision *models.Decision) error
	ExistsForRecord(ctx context.Context, tenantID string, sourceID string) (bool, error)
}

// DebtStore persists the obligations created by auto-assigned matches.
type DebtStore interface {
	Create(ctx context.Context, debt *models.Debt) error
}

// DecisionNotifier is told about every decision the run produces. Notification
// failures never fail the record.
type DecisionNotifier interface {
	DecisionMade(ctx context.Context, decision *models.Decision)
}

// Orchestrator runs a full reconciliation batch: validate, look up
// candidates, score, route and persist, isolating per-record failures so one
// bad record never aborts the run.
type Orchestrator struct {
	logger         ectologger.Logger
	engine         *matching.Engine
	validator      *validation.Validator
	persons        CandidateRetriever
	decisions      DecisionStore
	debts          DebtStore
	notifier       DecisionNotifier
	candidateLimit int
}

// NewOrchestrator creates a new batch orchestrator. notifier may be nil.
func NewOrchestrator(
	logger ectologger.Logger,
	engine *matching.Engine,
	validator *validation.Validator,
	persons CandidateRetriever,
	decisions DecisionStore,
	debts DebtStore,
	notifier DecisionNotifier,
) *Orchestrator {
	return &Orchestrator{
		logger:         logger,
		engine:         engine,
		validator:      validator,
		persons:        persons,
		decisions:      decisions,
		debts:          debts,
		notifier:       notifier,
		candidateLimit: DefaultCandidateLimit,
	}
}

// ProcessBatch reconciles every record against the registry under one
// immutable criterion snapshot. An invalid criterion set aborts before any
// record is touched; everything after that is per-record.
func (o *Orchestrator) ProcessBatch(ctx context.Context, tenantID string, records []models.ContactRecord, criteria []models.MatchCriterion) (*models.BatchSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "Orchestrator.ProcessBatch")
	defer span.End()

	if err := o.engine.ValidateCriteria(criteria); err != nil {
		o.logger.WithContext(ctx).WithError(err).Error("Criterion set rejected, aborting batch")
		return nil, err
	}

	start := time.Now()
	summary := &models.BatchSummary{}

	// Persons auto-assigned earlier in this run. A second record reaching
	// auto-assign confidence for the same person is downgraded to review so
	// two records never silently claim one identity in a single batch.
	claimed := make(map[string]bool)

	for i := range records {
		o.processRecord(ctx, tenantID, i, &records[i], criteria, claimed, summary)
	}

	summary.Elapsed = time.Since(start)
	metrics.RecordBatch(tenantID, summary.Elapsed.Seconds())

	o.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id":     tenantID,
		"processed":     summary.Processed,
		"auto_assigned": summary.AutoAssigned,
		"needs_review":  summary.NeedsReview,
		"rejected":      summary.Rejected,
		"skipped":       summary.Skipped,
		"errors":        len(summary.Errors),
		"elapsed_ms":    summary.Elapsed.Milliseconds(),
	}).Info("Batch reconciliation complete")

	return summary, nil
}

func (o *Orchestrator) processRecord(ctx context.Context, tenantID string, index int, record *models.ContactRecord, criteria []models.MatchCriterion, claimed map[string]bool, summary *models.BatchSummary) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithContext(ctx).WithFields(map[string]any{
				"source_id": record.SourceID,
				"panic":     fmt.Sprint(r),
			}).Error("Record processing panicked")
			summary.Errors = append(summary.Errors, models.RecordError{
				Index:    index,
				SourceID: record.SourceID,
				Stage:    models.StageLookup,
				Message:  fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	summary.Processed++

	already, err := o.decisions.ExistsForRecord(ctx, tenantID, record.SourceID)
	if err != nil {
		summary.Errors = append(summary.Errors, models.RecordError{
			Index:    index,
			SourceID: record.SourceID,
			Stage:    models.StageLookup,
			Message:  err.Error(),
		})
		return
	}
	if already {
		summary.Skipped++
		metrics.RecordRecordOutcome(tenantID, "skipped")
		return
	}

	result := o.validator.ValidateRecord(record)
	if !result.Valid {
		for _, fieldErr := range result.Errors {
			summary.ValidationErrors = append(summary.ValidationErrors, models.RecordError{
				Index:    index,
				SourceID: record.SourceID,
				Field:    fieldErr.Field,
				Stage:    models.StageValidate,
				Message:  fieldErr.Message,
			})
		}
		metrics.RecordRecordOutcome(tenantID, "validation_failed")
		return
	}

	candidates, err := o.persons.FindCandidates(ctx, tenantID, record, o.candidateLimit)
	if err != nil {
		o.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"source_id": record.SourceID,
		}).Error("Candidate lookup failed")
		summary.Errors = append(summary.Errors, models.RecordError{
			Index:    index,
			SourceID: record.SourceID,
			Stage:    models.StageLookup,
			Message:  err.Error(),
		})
		return
	}

	metrics.CandidatesPerRecord.Observe(float64(len(candidates)))
	if len(candidates) > 0 {
		summary.Matched++
	}

	best := o.engine.ScoreAll(record, candidates, criteria).Best()

	decision := o.buildDecision(tenantID, record, best)

	if decision.Disposition == models.DispositionAutoAssigned && claimed[*decision.PersonID] {
		o.logger.WithContext(ctx).WithFields(map[string]any{
			"source_id": record.SourceID,
			"person_id": *decision.PersonID,
		}).Warn("Person already auto-assigned this run, downgrading to review")
		decision.Disposition = models.DispositionNeedsReview
	}

	if err := o.decisions.Create(ctx, decision); err != nil {
		summary.Errors = append(summary.Errors, models.RecordError{
			Index:    index,
			SourceID: record.SourceID,
			Stage:    models.StagePersist,
			Message:  err.Error(),
		})
		return
	}

	if decision.Disposition == models.DispositionAutoAssigned {
		claimed[*decision.PersonID] = true
		if err := o.createDebt(ctx, record, decision); err != nil {
			// The record errored; it must not also count as assigned.
			summary.Errors = append(summary.Errors, models.RecordError{
				Index:    index,
				SourceID: record.SourceID,
				Stage:    models.StagePersist,
				Message:  err.Error(),
			})
			return
		}
	}

	switch decision.Disposition {
	case models.DispositionAutoAssigned:
		summary.AutoAssigned++
	case models.DispositionNeedsReview:
		summary.NeedsReview++
	case models.DispositionRejected:
		summary.Rejected++
	}
	metrics.RecordDecision(tenantID, string(decision.Disposition))

	if o.notifier != nil {
		o.notifier.DecisionMade(ctx, decision)
	}
}

// buildDecision turns the best evaluation (possibly nil, when the registry
// offered no candidates) into an append-only decision row.
func (o *Orchestrator) buildDecision(tenantID string, record *models.ContactRecord, best *models.MatchEvaluation) *models.Decision {
	decision := &models.Decision{
		ID:        uuid.NewString(),
		TenantID:  tenantID,
		SourceID:  record.SourceID,
		Source:    record.Source,
		CreatedAt: time.Now().UTC(),
	}

	rawRecord, _ := json.Marshal(record)
	decision.RawRecord = rawRecord

	if best == nil {
		decision.Disposition = models.DispositionRejected
		decision.Band = models.BandNone
		decision.MatchedCriteria = json.RawMessage("[]")
		return decision
	}

	decision.Confidence = best.Confidence
	decision.Disposition, decision.Band = matching.Route(best.Confidence)
	if best.Person != nil && decision.Disposition != models.DispositionRejected {
		personID := best.Person.ID
		decision.PersonID = &personID
	}

	matched, _ := json.Marshal(best.MatchedCriteria)
	if matched == nil || string(matched) == "null" {
		matched = json.RawMessage("[]")
	}
	decision.MatchedCriteria = matched

	return decision
}

// createDebt materializes the obligation behind an auto-assigned decision,
// carrying over the provenance needed to audit the link later.
func (o *Orchestrator) createDebt(ctx context.Context, record *models.ContactRecord, decision *models.Decision) error {
	debt := &models.Debt{
		ID:              uuid.NewString(),
		TenantID:        decision.TenantID,
		PersonID:        *decision.PersonID,
		SourceID:        decision.SourceID,
		Source:          decision.Source,
		Description:     record.Field(models.FieldDescription),
		Confidence:      decision.Confidence,
		MatchedCriteria: decision.MatchedCriteria,
		RawRecord:       decision.RawRecord,
		CreatedAt:       time.Now().UTC(),
	}

	if raw := record.Field(models.FieldAmount); raw != "" {
		amount, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("parse amount %q: %w", raw, err)
		}
		debt.Amount = amount
	}

	if raw := record.Field(models.FieldDueDate); raw != "" {
		due, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return fmt.Errorf("parse due date %q: %w", raw, err)
		}
		debt.DueDate = &due
	}

	return o.debts.Create(ctx, debt)
}
