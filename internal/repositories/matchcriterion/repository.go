// Package matchcriterion persists the configurable criterion set
package matchcriterion

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

const columns = "id, tenant_id, name, field, mode, weight, threshold, normalizer, is_active, created_at, updated_at"

// Repository handles match criterion persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match criterion repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new match criterion
func (r *Repository) Create(ctx context.Context, tenantID string, req *models.CreateCriterionRequest) (*models.MatchCriterion, error) {
	ctx, span := tracing.StartSpan(ctx, "matchcriterion.Repository.Create")
	defer span.End()

	now := time.Now().UTC()
	criterion := &models.MatchCriterion{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Name:       req.Name,
		Field:      req.Field,
		Mode:       req.Mode,
		Weight:     req.Weight,
		Threshold:  req.Threshold,
		Normalizer: req.Normalizer,
		IsActive:   req.IsActive,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("match_criteria")
	sb.Cols("id", "tenant_id", "name", "field", "mode", "weight", "threshold", "normalizer", "is_active", "created_at", "updated_at")
	sb.Values(criterion.ID, criterion.TenantID, criterion.Name, criterion.Field, criterion.Mode, criterion.Weight, criterion.Threshold, criterion.Normalizer, criterion.IsActive, criterion.CreatedAt, criterion.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"name": req.Name}).Error("Failed to create match criterion")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create match criterion")
	}

	return criterion, nil
}

// Get retrieves a match criterion by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.MatchCriterion, error) {
	ctx, span := tracing.StartSpan(ctx, "matchcriterion.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("match_criteria")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	var criterion models.MatchCriterion
	if err := r.db.GetContext(ctx, &criterion, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match criterion %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get match criterion")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match criterion")
	}

	return &criterion, nil
}

// List retrieves every criterion for a tenant, active or not
func (r *Repository) List(ctx context.Context, tenantID string) ([]models.MatchCriterion, error) {
	ctx, span := tracing.StartSpan(ctx, "matchcriterion.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("match_criteria")
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.OrderBy("weight DESC", "name ASC")

	query, args := sb.Build()
	var criteria []models.MatchCriterion
	if err := r.db.SelectContext(ctx, &criteria, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list match criteria")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match criteria")
	}

	return criteria, nil
}

// ListActive retrieves the criterion set a batch run scores with. The caller
// holds the returned slice as an immutable snapshot for the whole run.
func (r *Repository) ListActive(ctx context.Context, tenantID string) ([]models.MatchCriterion, error) {
	ctx, span := tracing.StartSpan(ctx, "matchcriterion.Repository.ListActive")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("match_criteria")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("is_active", true),
	)
	sb.OrderBy("weight DESC", "name ASC")

	query, args := sb.Build()
	var criteria []models.MatchCriterion
	if err := r.db.SelectContext(ctx, &criteria, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list active match criteria")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list active match criteria")
	}

	return criteria, nil
}

// Update applies a partial update to a criterion
func (r *Repository) Update(ctx context.Context, tenantID string, id string, req *models.UpdateCriterionRequest) (*models.MatchCriterion, error) {
	ctx, span := tracing.StartSpan(ctx, "matchcriterion.Repository.Update")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("match_criteria")

	assignments := []string{sb.Assign("updated_at", time.Now().UTC())}
	if req.Name != nil {
		assignments = append(assignments, sb.Assign("name", *req.Name))
	}
	if req.Field != nil {
		assignments = append(assignments, sb.Assign("field", *req.Field))
	}
	if req.Mode != nil {
		assignments = append(assignments, sb.Assign("mode", *req.Mode))
	}
	if req.Weight != nil {
		assignments = append(assignments, sb.Assign("weight", *req.Weight))
	}
	if req.Threshold != nil {
		assignments = append(assignments, sb.Assign("threshold", *req.Threshold))
	}
	if req.Normalizer != nil {
		assignments = append(assignments, sb.Assign("normalizer", *req.Normalizer))
	}
	if req.IsActive != nil {
		assignments = append(assignments, sb.Assign("is_active", *req.IsActive))
	}
	sb.Set(assignments...)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update match criterion")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match criterion")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match criterion %s not found", id))
	}

	return r.Get(ctx, tenantID, id)
}

// Delete removes a criterion permanently
func (r *Repository) Delete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "matchcriterion.Repository.Delete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	sb.DeleteFrom("match_criteria")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete match criterion")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete match criterion")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("match criterion %s not found", id))
	}

	return nil
}
