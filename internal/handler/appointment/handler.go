package appointment

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ehr-booking/internal/handler"
	"github.com/jwalitptl/ehr-booking/internal/middleware"
	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/service/appointment"
	"github.com/jwalitptl/ehr-booking/internal/service/rbac"
	"github.com/jwalitptl/ehr-booking/pkg/errors"
	"github.com/jwalitptl/ehr-booking/pkg/httputil"
)

type Handler struct {
	service *appointment.Service
}

func NewHandler(service *appointment.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/slots/available", h.GetAvailableSlots)

	slots := protected.Group("/slots")
	{
		slots.POST("", h.CreateSlot)
		slots.PUT("/:id", h.UpdateSlot)
		slots.DELETE("/:id", h.CancelSlot)
	}

	doctors := protected.Group("/doctors")
	{
		doctors.GET("/:id/slots", h.GetDoctorSlots)
		doctors.GET("/:id/appointments", h.GetDoctorAppointments)
	}

	appointments := protected.Group("/appointments")
	{
		appointments.POST("", h.BookOnline)
		appointments.POST("/walk-in", h.BookWalkIn)
		appointments.GET("/:id", h.GetAppointment)
		appointments.PATCH("/:id/status", h.UpdateStatus)
		appointments.PUT("/:id/notes", h.AddDoctorNotes)
	}

	protected.GET("/patients/:id/appointments", h.GetPatientAppointments)
}

func (h *Handler) CreateSlot(c *gin.Context) {
	var req model.CreateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	slot, err := h.service.CreateSlot(c.Request.Context(), middleware.CallerFrom(c), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, slot)
}

func (h *Handler) UpdateSlot(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id", "slot")
	if !ok {
		return
	}
	var req model.UpdateSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	slot, err := h.service.UpdateSlot(c.Request.Context(), middleware.CallerFrom(c), id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slot)
}

func (h *Handler) CancelSlot(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id", "slot")
	if !ok {
		return
	}

	slot, err := h.service.CancelSlot(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slot)
}

func (h *Handler) GetAvailableSlots(c *gin.Context) {
	from, ok := handler.QueryTime(c, "from")
	if !ok {
		return
	}
	to, ok := handler.QueryTime(c, "to")
	if !ok {
		return
	}

	slots, err := h.service.GetAvailableSlots(c.Request.Context(), from, to)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) GetDoctorSlots(c *gin.Context) {
	doctorID, ok := handler.ParamUUID(c, "id", "doctor")
	if !ok {
		return
	}
	from, ok := handler.QueryTime(c, "from")
	if !ok {
		return
	}
	to, ok := handler.QueryTime(c, "to")
	if !ok {
		return
	}

	slots, err := h.service.GetDoctorSlots(c.Request.Context(), middleware.CallerFrom(c), doctorID, from, to)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, slots)
}

func (h *Handler) GetDoctorAppointments(c *gin.Context) {
	doctorID, ok := handler.ParamUUID(c, "id", "doctor")
	if !ok {
		return
	}

	appointments, err := h.service.GetDoctorAppointments(c.Request.Context(), middleware.CallerFrom(c), doctorID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}

func (h *Handler) BookOnline(c *gin.Context) {
	var req model.BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	appointment, err := h.service.BookOnline(c.Request.Context(), middleware.CallerFrom(c), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appointment)
}

func (h *Handler) BookWalkIn(c *gin.Context) {
	caller := middleware.CallerFrom(c)
	if !rbac.CanBookWalkIn(caller) {
		httputil.RespondWithError(c, errors.Unauthorized("walk-in booking requires front desk staff"))
		return
	}

	var req model.WalkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	appointment, err := h.service.BookWalkIn(c.Request.Context(), caller, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, appointment)
}

func (h *Handler) GetAppointment(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id", "appointment")
	if !ok {
		return
	}

	appointment, err := h.service.GetAppointment(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id", "appointment")
	if !ok {
		return
	}
	var req model.UpdateAppointmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	appointment, err := h.service.UpdateAppointmentStatus(c.Request.Context(), middleware.CallerFrom(c), id, req.Status)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) AddDoctorNotes(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id", "appointment")
	if !ok {
		return
	}
	var req model.DoctorNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	appointment, err := h.service.AddDoctorNotes(c.Request.Context(), middleware.CallerFrom(c), id, req.Notes)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointment)
}

func (h *Handler) GetPatientAppointments(c *gin.Context) {
	patientID, ok := handler.ParamUUID(c, "id", "patient")
	if !ok {
		return
	}

	appointments, err := h.service.GetPatientAppointments(c.Request.Context(), middleware.CallerFrom(c), patientID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, appointments)
}
