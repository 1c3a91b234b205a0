package patient

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

type Handler struct {
	patients Repository
}

func NewHandler(patients Repository) *Handler {
	return &Handler{patients: patients}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/patient/profile", h.GetOwnProfile, auth.RequireRole("patient"))
}

func (h *Handler) GetOwnProfile(c echo.Context) error {
	id, err := uuid.Parse(auth.ActorIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid actor")
	}
	p, err := h.patients.GetByID(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, p)
}
