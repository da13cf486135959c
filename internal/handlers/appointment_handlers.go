package handlers

import (
	"net/http"

	"salonhub/internal/common"
	"salonhub/internal/models"
	"salonhub/internal/services"

	"github.com/labstack/echo/v4"
)

// AppointmentHandlers handles booking, the appointment lifecycle and deposits
type AppointmentHandlers struct {
	appointmentService services.AppointmentService
	tenantService      services.TenantService
}

func NewAppointmentHandlers(appointmentService services.AppointmentService, tenantService services.TenantService) *AppointmentHandlers {
	return &AppointmentHandlers{
		appointmentService: appointmentService,
		tenantService:      tenantService,
	}
}

// CancelRequest carries the optional cancellation reason.
type CancelRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// BookAppointment handles POST /v1/appointments
func (h *AppointmentHandlers) BookAppointment(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	var req services.BookAppointmentRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	appointment, err := h.appointmentService.Book(c.Request().Context(), actor, &req)
	if err != nil {
		return common.HandleError(c, "book appointment", err)
	}
	return c.JSON(http.StatusCreated, appointment)
}

// ListAppointments handles GET /v1/appointments
func (h *AppointmentHandlers) ListAppointments(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	ctx := c.Request().Context()

	tenant, err := h.tenantService.Get(ctx, actor.TenantID)
	if err != nil {
		return common.HandleError(c, "list appointments", err)
	}
	from, to, ok, err := timeRangeQuery(c, tenant.Location())
	if !ok {
		return err
	}
	stylistID, ok, err := optionalUUIDQuery(c, "stylist_id")
	if !ok {
		return err
	}
	clientID, ok, err := optionalUUIDQuery(c, "client_id")
	if !ok {
		return err
	}

	status := optionalStringQuery(c, "status")
	if status != nil {
		switch *status {
		case models.AppointmentPending, models.AppointmentConfirmed, models.AppointmentCompleted,
			models.AppointmentCancelled, models.AppointmentNoShow:
		default:
			return common.SendValidationError(c, "status", "unknown appointment status")
		}
	}
	depositStatus := optionalStringQuery(c, "deposit_status")
	if depositStatus != nil {
		switch *depositStatus {
		case models.DepositNotRequired, models.DepositPending, models.DepositReceived,
			models.DepositWaived, models.DepositRejected, models.DepositExpired:
		default:
			return common.SendValidationError(c, "deposit_status", "unknown deposit status")
		}
	}

	limit, offset := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))
	filter := &models.AppointmentFilter{
		From:          from,
		To:            to,
		StylistID:     stylistID,
		ClientID:      clientID,
		Status:        status,
		DepositStatus: depositStatus,
		Limit:         limit,
		Offset:        offset,
	}

	appointments, err := h.appointmentService.List(ctx, actor.TenantID, filter)
	if err != nil {
		return common.HandleError(c, "list appointments", err)
	}
	return c.JSON(http.StatusOK, listResponse(appointments, len(appointments), limit, offset))
}

// GetAppointment handles GET /v1/appointments/:id
func (h *AppointmentHandlers) GetAppointment(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	appointment, err := h.appointmentService.Get(c.Request().Context(), actor.TenantID, id)
	if err != nil {
		return common.HandleError(c, "get appointment", err)
	}
	return c.JSON(http.StatusOK, appointment)
}

// RescheduleAppointment handles PUT /v1/appointments/:id
func (h *AppointmentHandlers) RescheduleAppointment(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req services.RescheduleRequest
	if ok, err := common.BindAndValidate(c, &req); !ok {
		return err
	}

	appointment, err := h.appointmentService.Reschedule(c.Request().Context(), actor, id, &req)
	if err != nil {
		return common.HandleError(c, "reschedule appointment", err)
	}
	return c.JSON(http.StatusOK, appointment)
}

// ConfirmAppointment handles POST /v1/appointments/:id/confirm
func (h *AppointmentHandlers) ConfirmAppointment(c echo.Context) error {
	return h.transition(c, models.AppointmentConfirmed, nil)
}

// CompleteAppointment handles POST /v1/appointments/:id/complete
func (h *AppointmentHandlers) CompleteAppointment(c echo.Context) error {
	return h.transition(c, models.AppointmentCompleted, nil)
}

// NoShowAppointment handles POST /v1/appointments/:id/no-show
func (h *AppointmentHandlers) NoShowAppointment(c echo.Context) error {
	return h.transition(c, models.AppointmentNoShow, nil)
}

// CancelAppointment handles POST /v1/appointments/:id/cancel
func (h *AppointmentHandlers) CancelAppointment(c echo.Context) error {
	var req CancelRequest
	if c.Request().ContentLength > 0 {
		if ok, err := common.BindAndValidate(c, &req); !ok {
			return err
		}
	}
	return h.transition(c, models.AppointmentCancelled, req.Reason)
}

func (h *AppointmentHandlers) transition(c echo.Context, to string, reason *string) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	appointment, err := h.appointmentService.Transition(c.Request().Context(), actor, id, to, reason)
	if err != nil {
		return common.HandleError(c, "update appointment status", err)
	}
	return c.JSON(http.StatusOK, appointment)
}

// DeleteAppointment handles DELETE /v1/appointments/:id
func (h *AppointmentHandlers) DeleteAppointment(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}

	if err := h.appointmentService.Delete(c.Request().Context(), actor, id); err != nil {
		return common.HandleError(c, "delete appointment", err)
	}
	return deletedResponse(c, "appointment")
}

// DepositReceived handles POST /v1/appointments/:id/deposit/received
func (h *AppointmentHandlers) DepositReceived(c echo.Context) error {
	return h.decideDeposit(c, models.DepositReceived)
}

// DepositWaived handles POST /v1/appointments/:id/deposit/waived
func (h *AppointmentHandlers) DepositWaived(c echo.Context) error {
	return h.decideDeposit(c, models.DepositWaived)
}

// DepositRejected handles POST /v1/appointments/:id/deposit/rejected
func (h *AppointmentHandlers) DepositRejected(c echo.Context) error {
	return h.decideDeposit(c, models.DepositRejected)
}

func (h *AppointmentHandlers) decideDeposit(c echo.Context, status string) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	id, ok, err := pathID(c, "id")
	if !ok {
		return err
	}
	var req services.DepositDecisionRequest
	if c.Request().ContentLength > 0 {
		if ok, err := common.BindAndValidate(c, &req); !ok {
			return err
		}
	}

	appointment, err := h.appointmentService.DecideDeposit(c.Request().Context(), actor, id, status, &req)
	if err != nil {
		return common.HandleError(c, "record deposit decision", err)
	}
	return c.JSON(http.StatusOK, appointment)
}

// ListPendingDeposits handles GET /v1/deposits/pending
func (h *AppointmentHandlers) ListPendingDeposits(c echo.Context) error {
	actor, ok, err := requireActor(c)
	if !ok {
		return err
	}
	limit, offset := common.ParsePagination(c.QueryParam("limit"), c.QueryParam("offset"))

	appointments, err := h.appointmentService.ListPendingDeposits(c.Request().Context(), actor.TenantID, limit, offset)
	if err != nil {
		return common.HandleError(c, "list pending deposits", err)
	}
	return c.JSON(http.StatusOK, listResponse(appointments, len(appointments), limit, offset))
}
