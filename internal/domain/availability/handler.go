package availability

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicdesk/clinicdesk/internal/platform/auth"
	"github.com/clinicdesk/clinicdesk/pkg/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/doctors/:id/available-slots", h.GetAvailableSlots)

	doctorGroup := api.Group("/doctor/availability", auth.RequireRole("doctor"))
	doctorGroup.POST("", h.CreateSlot)
	doctorGroup.GET("", h.ListAvailability)
	doctorGroup.GET("/:slotId", h.GetSlot)
	doctorGroup.PUT("/:slotId", h.UpdateSlot)
	doctorGroup.DELETE("/:slotId", h.DeleteSlot)
}

func actorUUID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.ActorIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid actor")
	}
	return id, nil
}

func (h *Handler) CreateSlot(c echo.Context) error {
	doctorID, err := actorUUID(c)
	if err != nil {
		return err
	}
	var req CreateSlotRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	slots, err := h.svc.CreateSlot(c.Request().Context(), doctorID, req)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	if req.Recurring {
		return c.JSON(http.StatusCreated, map[string]interface{}{
			"created": len(slots),
			"slots":   slots,
		})
	}
	return c.JSON(http.StatusCreated, slots[0])
}

func (h *Handler) ListAvailability(c echo.Context) error {
	doctorID, err := actorUUID(c)
	if err != nil {
		return err
	}
	slots, err := h.svc.ListDoctorAvailability(c.Request().Context(), doctorID, c.QueryParam("date"))
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"slots": slots})
}

func (h *Handler) GetSlot(c echo.Context) error {
	doctorID, err := actorUUID(c)
	if err != nil {
		return err
	}
	slotID, err := uuid.Parse(c.Param("slotId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slot id")
	}
	slot, err := h.svc.GetSlot(c.Request().Context(), doctorID, slotID)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) UpdateSlot(c echo.Context) error {
	doctorID, err := actorUUID(c)
	if err != nil {
		return err
	}
	slotID, err := uuid.Parse(c.Param("slotId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slot id")
	}
	var patch SlotPatch
	if err := c.Bind(&patch); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	slot, err := h.svc.UpdateSlot(c.Request().Context(), doctorID, slotID, patch)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, slot)
}

func (h *Handler) DeleteSlot(c echo.Context) error {
	doctorID, err := actorUUID(c)
	if err != nil {
		return err
	}
	slotID, err := uuid.Parse(c.Param("slotId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid slot id")
	}
	if err := h.svc.DeleteSlot(c.Request().Context(), doctorID, slotID); err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) GetAvailableSlots(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid doctor id")
	}
	date := c.QueryParam("date")
	if date == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "date query parameter is required")
	}
	day, err := h.svc.GetDoctorAvailableSlots(c.Request().Context(), doctorID, date)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, day)
}
