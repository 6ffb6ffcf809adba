// Package debt persists the obligations created by matched records
package debt

import (
	"context"
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

// Repository handles debt persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new debt repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a debt. A unique constraint over (tenant_id, person_id,
// source_id) plus ON CONFLICT DO NOTHING makes retried batches safe: the
// same record can never produce a second obligation for the same person.
func (r *Repository) Create(ctx context.Context, debt *models.Debt) error {
	ctx, span := tracing.StartSpan(ctx, "debt.Repository.Create")
	defer span.End()

	if debt.ID == "" {
		debt.ID = uuid.New().String()
	}
	if debt.CreatedAt.IsZero() {
		debt.CreatedAt = time.Now().UTC()
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

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": debt.PersonID, "source_id": debt.SourceID}).Error("Failed to create debt")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create debt")
	}

	return nil
}

// ListByPerson retrieves a person's debts, newest first
func (r *Repository) ListByPerson(ctx context.Context, tenantID string, personID string) ([]models.Debt, error) {
	ctx, span := tracing.StartSpan(ctx, "debt.Repository.ListByPerson")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "tenant_id", "person_id", "source_id", "source", "amount", "due_date", "description", "confidence", "matched_criteria", "raw_record", "created_at")
	sb.From("debts")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.Equal("person_id", personID),
	)
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var debts []models.Debt
	if err := r.db.SelectContext(ctx, &debts, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list debts")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list debts")
	}

	return debts, nil
}

// TotalAmount sums the obligation value created in [since, until)
func (r *Repository) TotalAmount(ctx context.Context, tenantID string, since, until time.Time) (float64, error) {
	ctx, span := tracing.StartSpan(ctx, "debt.Repository.TotalAmount")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COALESCE(SUM(amount), 0)")
	sb.From("debts")
	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.GreaterEqualThan("created_at", since),
		sb.LessThan("created_at", until),
	)

	query, args := sb.Build()
	var total float64
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to total debt amounts")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to total debt amounts")
	}

	return total, nil
}
