// Package reconcile exposes the batch reconciliation endpoint
package reconcile

import (
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/matchcriterion"
	"github.com/Ramsey-B/fern/pkg/appcontext"
	"github.com/Ramsey-B/fern/pkg/batch"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Request is the reconcile request body
type Request struct {
	Source  string                 `json:"source"`
	Records []models.ContactRecord `json:"records" validate:"required"`
}

// Register registers reconcile routes
func Register(g *echo.Group) {
	g.POST("", Reconcile)
}

// Reconcile runs a reconciliation batch over the posted records and returns
// the run summary. An invalid criterion set fails the whole request; bad
// records only show up in the summary's error lists.
func Reconcile(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "tenant id header is required")
	}

	var req Request
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if len(req.Records) == 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "records is required")
	}

	for i := range req.Records {
		if req.Records[i].Source == "" {
			req.Records[i].Source = req.Source
		}
	}

	ctx, criteriaRepo, err := ectoinject.GetContext[*matchcriterion.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	criteria, err := criteriaRepo.ListActive(ctx, tenantID)
	if err != nil {
		return err
	}

	ctx, orchestrator, err := ectoinject.GetContext[*batch.Orchestrator](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	summary, err := orchestrator.ProcessBatch(ctx, tenantID, req.Records, criteria)
	if err != nil {
		var cfgErr *models.ConfigurationError
		if errors.As(err, &cfgErr) {
			return httperror.NewHTTPError(http.StatusUnprocessableEntity, cfgErr.Error())
		}
		return err
	}

	return c.JSON(http.StatusOK, summary)
}
