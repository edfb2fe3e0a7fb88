package patient

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ehr-booking/internal/handler"
	"github.com/jwalitptl/ehr-booking/internal/middleware"
	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/service/patient"
	"github.com/jwalitptl/ehr-booking/pkg/httputil"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(_, protected *gin.RouterGroup) {
	patients := protected.Group("/patients")
	{
		patients.GET("/me", h.GetMyPatient)
		patients.GET("/:id", h.GetPatient)
		patients.PUT("/:id", h.UpdatePatient)
	}
}

func (h *Handler) GetMyPatient(c *gin.Context) {
	p, err := h.service.GetMyPatient(c.Request.Context(), middleware.CallerFrom(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id", "patient")
	if !ok {
		return
	}

	p, err := h.service.GetPatient(c.Request.Context(), middleware.CallerFrom(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, ok := handler.ParamUUID(c, "id", "patient")
	if !ok {
		return
	}
	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	p, err := h.service.UpdatePatient(c.Request.Context(), middleware.CallerFrom(c), id, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, p)
}
