package booking

import (
	"net/http"
	"time"

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
	patientGroup := api.Group("/appointments", auth.RequireRole("patient"))
	patientGroup.POST("", h.Book)
	patientGroup.GET("", h.ListPatientAppointments)
	patientGroup.GET("/:id", h.GetAppointment)
	patientGroup.PUT("/:id/cancel", h.CancelByPatient)
	patientGroup.PUT("/:id/reschedule", h.Reschedule)

	doctorGroup := api.Group("/doctor/appointments", auth.RequireRole("doctor"))
	doctorGroup.GET("", h.ListDoctorAppointments)
	doctorGroup.GET("/:id", h.GetAppointment)
	doctorGroup.PUT("/:id/status", h.UpdateStatus)
	doctorGroup.PUT("/:id/cancel", h.CancelByDoctor)
}

func actorUUID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.ActorIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "invalid actor")
	}
	return id, nil
}

func apptID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid appointment id")
	}
	return id, nil
}

func listFilters(c echo.Context) ListFilters {
	filters := ListFilters{Status: Status(c.QueryParam("status"))}
	if v := c.QueryParam("from_date"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			filters.FromDate = &d
		}
	}
	if v := c.QueryParam("to_date"); v != "" {
		if d, err := time.Parse("2006-01-02", v); err == nil {
			filters.UpToDate = &d
		}
	}
	return filters
}

func (h *Handler) Book(c echo.Context) error {
	patientID, err := actorUUID(c)
	if err != nil {
		return err
	}
	var req BookRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SlotID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "slot_id is required")
	}
	appt, err := h.svc.Book(c.Request().Context(), patientID, req)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusCreated, appt)
}

func (h *Handler) ListPatientAppointments(c echo.Context) error {
	patientID, err := actorUUID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatientAppointments(c.Request().Context(), patientID, listFilters(c), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) ListDoctorAppointments(c echo.Context) error {
	doctorID, err := actorUUID(c)
	if err != nil {
		return err
	}
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListDoctorAppointments(c.Request().Context(), doctorID, listFilters(c), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) GetAppointment(c echo.Context) error {
	actorID, err := actorUUID(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	view, err := h.svc.GetAppointment(c.Request().Context(), actorID, id)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, view)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) CancelByPatient(c echo.Context) error {
	patientID, err := actorUUID(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	appt, err := h.svc.CancelByPatient(c.Request().Context(), patientID, id, req.Reason)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) CancelByDoctor(c echo.Context) error {
	doctorID, err := actorUUID(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	var req cancelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	appt, err := h.svc.CancelByDoctor(c.Request().Context(), doctorID, id, req.Reason)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, appt)
}

func (h *Handler) Reschedule(c echo.Context) error {
	patientID, err := actorUUID(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	var req RescheduleRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.SlotID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "new_slot_id is required")
	}
	appt, err := h.svc.Reschedule(c.Request().Context(), patientID, id, req)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusCreated, appt)
}

type statusRequest struct {
	Status Status `json:"status"`
	Notes  string `json:"notes"`
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	doctorID, err := actorUUID(c)
	if err != nil {
		return err
	}
	id, err := apptID(c)
	if err != nil {
		return err
	}
	var req statusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	appt, err := h.svc.UpdateStatus(c.Request().Context(), doctorID, id, req.Status, req.Notes)
	if err != nil {
		return echo.NewHTTPError(apperr.HTTPStatus(err), apperr.Message(err))
	}
	return c.JSON(http.StatusOK, appt)
}
