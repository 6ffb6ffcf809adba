// Package criterion exposes match criterion configuration endpoints
package criterion

import (
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/fern/internal/repositories/matchcriterion"
	"github.com/Ramsey-B/fern/pkg/appcontext"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Register registers match criterion routes
func Register(g *echo.Group) {
	g.GET("", ListCriteria)
	g.GET("/:id", GetCriterion)
	g.POST("", CreateCriterion)
	g.PUT("/:id", UpdateCriterion)
	g.DELETE("/:id", DeleteCriterion)
}

// ListCriteria lists every criterion for the tenant
func ListCriteria(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	ctx, repo, err := ectoinject.GetContext[*matchcriterion.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	criteria, err := repo.List(ctx, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, criteria)
}

// GetCriterion gets a criterion by ID
func GetCriterion(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	ctx, repo, err := ectoinject.GetContext[*matchcriterion.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	criterion, err := repo.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, criterion)
}

// CreateCriterion creates a new match criterion
func CreateCriterion(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	var req models.CreateCriterionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validateCriterion(req.Mode, req.Weight, req.Normalizer); err != nil {
		return err
	}
	if req.Name == "" || req.Field == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "name and field are required")
	}

	ctx, repo, err := ectoinject.GetContext[*matchcriterion.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	created, err := repo.Create(ctx, tenantID, &req)
	if err != nil {
		return err
	}

	ctx, logger, _ := ectoinject.GetContext[ectologger.Logger](ctx)
	if logger != nil {
		logger.WithContext(ctx).WithFields(map[string]any{"id": created.ID, "name": created.Name}).Info("Created match criterion")
	}

	return c.JSON(http.StatusCreated, created)
}

// UpdateCriterion applies a partial update to a criterion
func UpdateCriterion(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	var req models.UpdateCriterionRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Mode != nil || req.Weight != nil || req.Normalizer != nil {
		mode := models.CriterionMode("")
		if req.Mode != nil {
			mode = *req.Mode
		}
		weight := 1
		if req.Weight != nil {
			weight = *req.Weight
		}
		if err := validateCriterion(mode, weight, req.Normalizer); err != nil {
			return err
		}
	}

	ctx, repo, err := ectoinject.GetContext[*matchcriterion.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	updated, err := repo.Update(ctx, tenantID, c.Param("id"), &req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, updated)
}

// DeleteCriterion deletes a criterion
func DeleteCriterion(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	ctx, repo, err := ectoinject.GetContext[*matchcriterion.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.Delete(ctx, tenantID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// validateCriterion rejects configurations the evaluator would refuse at
// batch time, so bad criteria fail at write instead of at the next run.
func validateCriterion(mode models.CriterionMode, weight int, normalizer *string) error {
	if mode != "" {
		known := false
		for _, m := range models.KnownCriterionModes {
			if m == mode {
				known = true
				break
			}
		}
		if !known {
			return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown mode %q", mode))
		}
	}
	if weight <= 0 {
		return httperror.NewHTTPError(http.StatusBadRequest, "weight must be positive")
	}
	if normalizer != nil {
		if _, ok := normalizers.Get(*normalizer); !ok {
			return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown normalizer %q", *normalizer))
		}
	}
	return nil
}
