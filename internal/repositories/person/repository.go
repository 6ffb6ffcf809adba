// Package person persists the registry of known individuals
package person

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

const columns = "id, tenant_id, rut, full_name, email, phone, address, created_at, updated_at, deleted_at"

// Repository handles person persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new person repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a person. Normalized identifier columns are derived here so
// candidate lookups never depend on how the source formatted the values.
func (r *Repository) Create(ctx context.Context, person *models.Person) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Create")
	defer span.End()

	if person.ID == "" {
		person.ID = uuid.New().String()
	}
	person.CreatedAt = time.Now().UTC()
	person.UpdatedAt = person.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("persons")
	sb.Cols("id", "tenant_id", "rut", "full_name", "email", "phone", "address", "rut_norm", "email_norm", "phone_norm", "created_at", "updated_at")
	sb.Values(
		person.ID, person.TenantID, person.RUT, person.FullName, person.Email, person.Phone, person.Address,
		normalizers.NormalizeRUT(person.RUT), normalizers.NormalizeEmail(person.Email), normalizers.NormalizePhone(person.Phone),
		person.CreatedAt, person.UpdatedAt,
	)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"person_id": person.ID}).Error("Failed to create person")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create person")
	}

	return person, nil
}

// Get retrieves a person by ID
func (r *Repository) Get(ctx context.Context, tenantID string, id string) (*models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("persons")
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	var person models.Person
	if err := r.db.GetContext(ctx, &person, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("person %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get person")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get person")
	}

	return &person, nil
}

// FindCandidates retrieves persons worth scoring against a record. Strong
// identifiers (rut, email, phone) are matched on their normalized columns;
// when the record carries none, it falls back to a name prefix scan so the
// engine still sees fuzzy-name candidates.
func (r *Repository) FindCandidates(ctx context.Context, tenantID string, record *models.ContactRecord, limit int) ([]models.Person, error) {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.FindCandidates")
	defer span.End()

	if limit < 1 || limit > 100 {
		limit = 10
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("persons")

	var identifiers []string
	if rut := normalizers.NormalizeRUT(record.Field(models.FieldRUT)); rut != "" {
		identifiers = append(identifiers, sb.Equal("rut_norm", rut))
	}
	if email := normalizers.NormalizeEmail(record.Field(models.FieldEmail)); email != "" {
		identifiers = append(identifiers, sb.Equal("email_norm", email))
	}
	if phone := normalizers.NormalizePhone(record.Field(models.FieldPhone)); phone != "" {
		identifiers = append(identifiers, sb.Equal("phone_norm", phone))
	}

	if len(identifiers) == 0 {
		prefix := namePrefix(record.Field(models.FieldFullName))
		if prefix == "" {
			return nil, nil
		}
		identifiers = append(identifiers, sb.ILike("full_name", prefix+"%"))
	}

	sb.Where(
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
		sb.Or(identifiers...),
	)
	sb.OrderBy("updated_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var persons []models.Person
	if err := r.db.SelectContext(ctx, &persons, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"source_id": record.SourceID}).Error("Failed to find candidate persons")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find candidate persons")
	}

	return persons, nil
}

// SoftDelete marks a person as deleted without removing history
func (r *Repository) SoftDelete(ctx context.Context, tenantID string, id string) error {
	ctx, span := tracing.StartSpan(ctx, "person.Repository.SoftDelete")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	sb.Update("persons")
	sb.Set(
		sb.Assign("deleted_at", time.Now().UTC()),
		sb.Assign("updated_at", time.Now().UTC()),
	)
	sb.Where(
		sb.Equal("id", id),
		sb.Equal("tenant_id", tenantID),
		sb.IsNull("deleted_at"),
	)

	query, args := sb.Build()
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to delete person")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete person")
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("person %s not found", id))
	}

	return nil
}

// namePrefix takes the first token of the default-normalized name. A single
// character is too unselective to scan on.
func namePrefix(name string) string {
	normalized := normalizers.Default(name)
	token, _, _ := strings.Cut(normalized, " ")
	if len(token) < 2 {
		return ""
	}
	return token
}
