package doctor

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
	"github.com/clinicdesk/clinicdesk/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors", h.ListDoctors)
	api.GET("/doctors/:id", h.GetDoctor)

	doctorGroup := api.Group("/doctor", auth.RequireRole("doctor"))
	doctorGroup.GET("/profile", h.GetOwnProfile)
	doctorGroup.PUT("/profile", h.UpdateOwnProfile)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	pg := pagination.FromContext(c)

	filters := Filters{
		Specialization: c.QueryParam("specialization"),
		Search:         c.QueryParam("search"),
	}
	if v := c.QueryParam("experience_years"); v != "" {
		filters.MinExperienceYears, _ = strconv.Atoi(v)
	}
	if v := c.QueryParam("consultation_fee_max"); v != "" {
		filters.MaxConsultationFee, _ = strconv.ParseFloat(v, 64)
	}

	items, total, err := h.svc.ListDoctors(c.Request().Context(), filters, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	d, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) GetOwnProfile(c echo.Context) error {
	id, err := uuid.Parse(auth.ActorIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid actor")
	}
	d, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) UpdateOwnProfile(c echo.Context) error {
	id, err := uuid.Parse(auth.ActorIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid actor")
	}
	var patch ProfilePatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.UpdateProfile(c.Request().Context(), id, patch)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, d)
}
