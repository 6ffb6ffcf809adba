// Package decision exposes decision history and review endpoints
package decision

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	decisionrepo "github.com/Ramsey-B/fern/internal/repositories/decision"
	"github.com/Ramsey-B/fern/pkg/appcontext"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/review"
)

// Register registers decision routes
func Register(g *echo.Group) {
	g.GET("", ListDecisions)
	g.GET("/pending", ListPendingDecisions)
	g.GET("/:id", GetDecision)
	g.POST("/:id/approve", ApproveDecision)
	g.POST("/:id/discard", DiscardDecision)
}

// ListDecisions lists decision history with optional filters
func ListDecisions(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	filter := decisionrepo.ListFilter{
		Disposition: models.Disposition(c.QueryParam("status")),
	}
	if from := c.QueryParam("from"); from != "" {
		since, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "from must be RFC3339")
		}
		filter.Since = since
	}
	if to := c.QueryParam("to"); to != "" {
		until, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "to must be RFC3339")
		}
		filter.Until = until
	}
	if limit := c.QueryParam("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		filter.Limit = n
	}

	ctx, repo, err := ectoinject.GetContext[*decisionrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	decisions, err := repo.List(ctx, tenantID, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, decisions)
}

// ListPendingDecisions lists the review queue, best matches first
func ListPendingDecisions(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	limit := 100
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
		limit = n
	}

	ctx, repo, err := ectoinject.GetContext[*decisionrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	decisions, err := repo.ListPending(ctx, tenantID, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, decisions)
}

// GetDecision gets a decision by ID
func GetDecision(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	ctx, repo, err := ectoinject.GetContext[*decisionrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	decision, err := repo.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, decision)
}

// ApproveDecision promotes a queued decision to auto_assigned
func ApproveDecision(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	reviewer := appcontext.GetUserID(ctx)

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	approved, err := svc.Approve(ctx, tenantID, c.Param("id"), reviewer)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, approved)
}

// DiscardDecision rejects a queued decision
func DiscardDecision(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	reviewer := appcontext.GetUserID(ctx)

	ctx, svc, err := ectoinject.GetContext[*review.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	discarded, err := svc.Discard(ctx, tenantID, c.Param("id"), reviewer)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, discarded)
}
