// Package review implements reviewer actions on queued decisions
package review

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// DecisionStore is the decision persistence surface the service needs.
// CreateWithDebt must apply both writes atomically.
type DecisionStore interface {
	Get(ctx context.Context, tenantID string, id string) (*models.Decision, error)
	Create(ctx context.Context, decision *models.Decision) error
	CreateWithDebt(ctx context.Context, decision *models.Decision, debt *models.Debt) error
}

// Notifier is told about reviewer outcomes. May be nil.
type Notifier interface {
	DecisionApproved(ctx context.Context, decision *models.Decision)
	DecisionDiscarded(ctx context.Context, decision *models.Decision)
}

// Service applies reviewer verdicts. Decisions stay append-only: both
// approval and discard write a new row referencing the same source record,
// never touching the reviewed one.
type Service struct {
	logger    ectologger.Logger
	decisions DecisionStore
	notifier  Notifier
}

// NewService creates a new review service
func NewService(logger ectologger.Logger, decisions DecisionStore, notifier Notifier) *Service {
	return &Service{
		logger:    logger,
		decisions: decisions,
		notifier:  notifier,
	}
}

// Approve promotes a queued decision: the matched person gets the debt and a
// new auto_assigned row records who approved it.
func (s *Service) Approve(ctx context.Context, tenantID string, decisionID string, reviewer string) (*models.Decision, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.Approve")
	defer span.End()

	original, err := s.decisions.Get(ctx, tenantID, decisionID)
	if err != nil {
		return nil, err
	}

	if original.Disposition != models.DispositionNeedsReview {
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("decision %s is not awaiting review", decisionID))
	}
	if original.PersonID == nil {
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("decision %s has no matched person to approve", decisionID))
	}

	debt, err := s.buildDebt(original)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"decision_id": decisionID}).Error("Failed to build debt from reviewed decision")
		return nil, httperror.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	approved := s.appendRow(original, models.DispositionAutoAssigned, reviewer)
	if err := s.decisions.CreateWithDebt(ctx, approved, debt); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"decision_id": decisionID,
		"person_id":   *original.PersonID,
		"reviewed_by": reviewer,
	}).Info("Decision approved")

	if s.notifier != nil {
		s.notifier.DecisionApproved(ctx, approved)
	}

	return approved, nil
}

// Discard rejects a queued decision, appending a rejected row
func (s *Service) Discard(ctx context.Context, tenantID string, decisionID string, reviewer string) (*models.Decision, error) {
	ctx, span := tracing.StartSpan(ctx, "review.Service.Discard")
	defer span.End()

	original, err := s.decisions.Get(ctx, tenantID, decisionID)
	if err != nil {
		return nil, err
	}

	if original.Disposition != models.DispositionNeedsReview {
		return nil, httperror.NewHTTPError(http.StatusConflict, fmt.Sprintf("decision %s is not awaiting review", decisionID))
	}

	discarded := s.appendRow(original, models.DispositionRejected, reviewer)
	discarded.PersonID = nil
	if err := s.decisions.Create(ctx, discarded); err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"decision_id": decisionID,
		"reviewed_by": reviewer,
	}).Info("Decision discarded")

	if s.notifier != nil {
		s.notifier.DecisionDiscarded(ctx, discarded)
	}

	return discarded, nil
}

func (s *Service) appendRow(original *models.Decision, disposition models.Disposition, reviewer string) *models.Decision {
	row := &models.Decision{
		ID:              uuid.NewString(),
		TenantID:        original.TenantID,
		SourceID:        original.SourceID,
		Source:          original.Source,
		PersonID:        original.PersonID,
		Disposition:     disposition,
		Band:            original.Band,
		Confidence:      original.Confidence,
		MatchedCriteria: original.MatchedCriteria,
		RawRecord:       original.RawRecord,
		CreatedAt:       time.Now().UTC(),
	}
	if reviewer != "" {
		row.ReviewedBy = &reviewer
	}
	return row
}

// buildDebt reconstructs the obligation from the decision's stored record.
func (s *Service) buildDebt(decision *models.Decision) (*models.Debt, error) {
	var record models.ContactRecord
	if err := json.Unmarshal(decision.RawRecord, &record); err != nil {
		return nil, fmt.Errorf("parse stored record: %w", err)
	}

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
			return nil, fmt.Errorf("parse amount %q: %w", raw, err)
		}
		debt.Amount = amount
	}

	if raw := record.Field(models.FieldDueDate); raw != "" {
		due, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("parse due date %q: %w", raw, err)
		}
		debt.DueDate = &due
	}

	return debt, nil
}
