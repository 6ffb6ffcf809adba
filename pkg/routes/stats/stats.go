// Package stats exposes the reconciliation statistics endpoint
package stats

import (
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/pkg/appcontext"
	statssvc "github.com/Ramsey-B/fern/pkg/stats"
)

// Register registers stats routes
func Register(g *echo.Group) {
	g.GET("", GetStats)
}

// GetStats aggregates decisions over the requested window. Defaults to the
// trailing 30 days when no bounds are given.
func GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	until := time.Now().UTC()
	since := until.AddDate(0, 0, -30)

	if from := c.QueryParam("from"); from != "" {
		parsed, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "from must be RFC3339")
		}
		since = parsed
	}
	if to := c.QueryParam("to"); to != "" {
		parsed, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "to must be RFC3339")
		}
		until = parsed
	}
	if !since.Before(until) {
		return httperror.NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	ctx, svc, err := ectoinject.GetContext[*statssvc.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	report, err := svc.Window(ctx, tenantID, since, until)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, report)
}
