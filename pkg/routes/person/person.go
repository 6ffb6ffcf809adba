// Package person exposes registry management endpoints
package person

import (
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/labstack/echo/v4"

	debtrepo "github.com/Ramsey-B/fern/internal/repositories/debt"
	personrepo "github.com/Ramsey-B/fern/internal/repositories/person"
	"github.com/Ramsey-B/fern/pkg/appcontext"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/validation"
)

// Register registers person registry routes
func Register(g *echo.Group) {
	g.POST("", CreatePerson)
	g.GET("/:id", GetPerson)
	g.GET("/:id/debts", ListPersonDebts)
	g.DELETE("/:id", DeletePerson)
}

// CreatePersonRequest is the payload for registering a person
type CreatePersonRequest struct {
	RUT      string `json:"rut"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// CreatePerson registers a person in the registry
func CreatePerson(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "tenant id is required")
	}

	var req CreatePersonRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if strings.TrimSpace(req.FullName) == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "full_name is required")
	}
	if req.RUT != "" && !validation.ValidRUT(req.RUT) {
		return httperror.NewHTTPError(http.StatusBadRequest, "rut check digit is invalid")
	}

	ctx, repo, err := ectoinject.GetContext[*personrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	person := &models.Person{
		TenantID: tenantID,
		RUT:      req.RUT,
		FullName: req.FullName,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
	}

	created, err := repo.Create(ctx, person)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}

// GetPerson gets a person by ID
func GetPerson(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	ctx, repo, err := ectoinject.GetContext[*personrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	person, err := repo.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, person)
}

// ListPersonDebts lists the debts assigned to a person, newest first
func ListPersonDebts(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	ctx, persons, err := ectoinject.GetContext[*personrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	// 404 before returning an empty list for an unknown person
	person, err := persons.Get(ctx, tenantID, c.Param("id"))
	if err != nil {
		return err
	}

	ctx, debts, err := ectoinject.GetContext[*debtrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	list, err := debts.ListByPerson(ctx, tenantID, person.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, list)
}

// DeletePerson soft deletes a person. Existing decisions and debts keep
// their reference.
func DeletePerson(c echo.Context) error {
	ctx := c.Request().Context()
	tenantID := appcontext.GetTenantID(ctx)

	ctx, repo, err := ectoinject.GetContext[*personrepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "service unavailable")
	}

	if err := repo.SoftDelete(ctx, tenantID, c.Param("id")); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
