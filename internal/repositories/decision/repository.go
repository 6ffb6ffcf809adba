// Package decision persists append-only match decisions
package decision

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const columns = "id, tenant_id, source_id, source, person_id, disposition, band, confidence, matched_criteria, raw_record, reviewed_by, created_at"

// ListFilter narrows a decision history query. Zero values mean "no filter".
type ListFilter struct {
	Disposition models.Disposition
	Since       time.Time
	Until       time.Time
	Limit       int
}

// Repository handles decision persistence. Rows are never updated or
// deleted; reviewer corrections append new rows.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new decision repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create appends a decision row
func (r *Repository) Create(ctx context.Context, decision *models.Decision) error {
	ctx, span := tracing.StartSpan(ctx, "decision.Repository.Create")
	defer span.End()

	if decision.ID == "" {
		decision.ID = uuid.New().String()
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now().UTC()
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("decisions")
	sb.Cols("id", "tenant_id", "source_id", "source", "person_id", "disposition", "band", "confidence", "matched_criteria", "raw_record", "reviewed_by", "created_at")
	sb.Values(
		decision.ID, decision.TenantID, decision.SourceID, decision.Source, decision.PersonID,
		decision.Disposition, decision.Band, decision.Confidence,
		[]byte(decision.MatchedCriteria), []byte(decision.RawRecord),
		decision.ReviewedBy, decision.CreatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source_id": decision.SourceID}).Error("Failed to create decision")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create decision")
	}

	return nil
}

// CreateWithDebt appends a decision row and creates its debt in one
// transaction. Used by review approval, where a half-applied correction
// would leave an assignment without its obligation.
func (r *Repository) CreateWithDebt(ctx context.Context, decision *models.Decision, debt *models.Debt) error {
	ctx, span := tracing.StartSpan(ctx, "decision.Repository.CreateWithDebt")
	defer span.End()

	if decision.ID == "" {
		decision.ID = uuid.New().String()
	}
	if decision.CreatedAt.IsZero() {
		decision.CreatedAt = time.Now().UTC()
	}
	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = time.Now().UTC()
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to start transaction")
	}
	defer tx.Rollback(ctx)

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("decisions")
	sb.Cols("id", "tenant_id", "source_id", "source", "person_id", "disposition", "band", "confidence", "matched_criteria", "raw_record", "reviewed_by", "created_at")
	sb.Values(
		decision.ID, decision.TenantID, decision.SourceID, decision.Source, decision.PersonID,
		decision.Disposition, decision.Band, decision.Confidence,
		[]byte(decision.MatchedCriteria), []byte(decision.RawRecord),
		decision.ReviewedBy, decision.CreatedAt,
	)
	query, args := sb.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source_id": decision.SourceID}).Error("Failed to create decision")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create decision")
	}

	ib := database.NewInsertBuilder()
	ib.InsertInto("debts")
	ib.Cols("id", "tenant_id", "person_id", "source_id", "source", "amount", "due_date", "description", "confidence", "matched_criteria", "raw_record", "created_at")
	ib.Values(
		debt.ID, debt.TenantID, debt.PersonID, debt.SourceID, debt.Source,
		debt.Amount, debt.DueDate, debt.Description, debt.Confidence,
		[]byte(debt.MatchedCriteria), []byte(debt.RawRecord), debt.CreatedAt,
	)
	ib.OnConflictDoNothing("tenant_id", "person_id", "source_id")
	query, args = ib.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source_id": debt.SourceID}).Error("Failed to create debt for decision")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create debt")
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to commit decision")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit decision")
	}

	return nil
}

// ExistsForRecord reports whether the record already has any decision row.
// Used for idempotent batch re-runs.
func (r *Repository) ExistsForRecord(ctx context.Context, tenantID string, sourceID string) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "decision.Repository.ExistsForRecord")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(1)")
	sb.From("decisions")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("source_id", sourceID),
	)

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to check decision existence")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to check decision existence")
	}

	return count > 0, nil
}

// Get retrieves a decision by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.Decision, error) {
	ctx, span := tracing.StartSpan(ctx, "decision.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("decisions")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var decision models.Decision
	if err := r.db.GetContext(ctx, &decision, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("decision %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get decision")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get decision")
	}

	return &decision, nil
}

// List retrieves decision history, newest first
func (r *Repository) List(ctx context.Context, tenantID string, filter ListFilter) ([]models.Decision, error) {
	ctx, span := tracing.StartSpan(ctx, "decision.Repository.List")
	defer span.End()

	if filter.Limit < 1 || filter.Limit > 500 {
		filter.Limit = 100
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("decisions")

	conditions := []string{sb.Equal("tenant_id", tenantID)}
	if filter.Disposition != "" {
		conditions = append(conditions, sb.Equal("disposition", filter.Disposition))
	}
	if !filter.Since.IsZero() {
		conditions = append(conditions, sb.GreaterEqualThan("created_at", filter.Since))
	}
	if !filter.Until.IsZero() {
		conditions = append(conditions, sb.LessThan("created_at", filter.Until))
	}
	sb.Where(conditions...)
	sb.OrderBy("created_at DESC")
	sb.Limit(filter.Limit)

	query, args := sb.Build()
	var decisions []models.Decision
	if err := r.db.SelectContext(ctx, &decisions, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list decisions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list decisions")
	}

	return decisions, nil
}

// ListWindow retrieves every decision created in [since, until), oldest
// first. Used by stats aggregation.
func (r *Repository) ListWindow(ctx context.Context, tenantID string, since, until time.Time) ([]models.Decision, error) {
	ctx, span := tracing.StartSpan(ctx, "decision.Repository.ListWindow")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("decisions")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.GreaterEqualThan("created_at", since),
		sb.LessThan("created_at", until),
	)
	sb.OrderBy("created_at ASC")

	query, args := sb.Build()
	var decisions []models.Decision
	if err := r.db.SelectContext(ctx, &decisions, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list decision window")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list decision window")
	}

	return decisions, nil
}

// ListPending retrieves the review queue: the latest decision per record is
// needs_review and no later row resolved it. Ordered by confidence
// descending so reviewers see the most promising matches first.
func (r *Repository) ListPending(ctx context.Context, tenantID string, limit int) ([]models.Decision, error) {
	ctx, span := tracing.StartSpan(ctx, "decision.Repository.ListPending")
	defer span.End()

	if limit < 1 || limit > 500 {
		limit = 100
	}

	// DISTINCT ON keeps only the newest row per source record; the outer
	// filter then drops records whose newest row is not needs_review.
	query := `
		SELECT ` + columns + ` FROM (
			SELECT DISTINCT ON (source_id) ` + columns + `
			FROM decisions
			WHERE tenant_id = $1
			ORDER BY source_id, created_at DESC
		) latest
		WHERE disposition = $2
		ORDER BY confidence DESC
		LIMIT $3`

	var decisions []models.Decision
	if err := r.db.SelectContext(ctx, &decisions, query, tenantID, models.DispositionNeedsReview, limit); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list pending decisions")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list pending decisions")
	}

	return decisions, nil
}
