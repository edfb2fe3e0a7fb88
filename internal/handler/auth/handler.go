package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ehr-booking/internal/middleware"
	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/internal/service/auth"
	"github.com/jwalitptl/ehr-booking/pkg/httputil"
)

// CookieConfig describes the session cookie set on login.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

type Handler struct {
	svc    *auth.Service
	cookie CookieConfig
}

func NewHandler(svc *auth.Service, cookie CookieConfig) *Handler {
	return &Handler{svc: svc, cookie: cookie}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	authGroup := public.Group("/auth")
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
		authGroup.POST("/staff/login", h.StaffLogin)
		authGroup.POST("/logout", h.Logout)
	}

	protected.POST("/staff", middleware.RequireStaffRole(model.StaffRoleAdmin), h.CreateStaff)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	patient, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, patient)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	token, err := h.svc.LoginAccount(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.setSession(c, token)
	httputil.RespondWithSuccess(c, token)
}

func (h *Handler) StaffLogin(c *gin.Context) {
	var req model.StaffLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	token, err := h.svc.LoginStaff(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	h.setSession(c, token)
	httputil.RespondWithSuccess(c, token)
}

// Logout drops the session cookie. Tokens are stateless and stay valid
// until they expire.
func (h *Handler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, "", -1, "/", h.cookie.Domain, h.cookie.Secure, true)
	httputil.RespondWithMessage(c, "logged out successfully")
}

func (h *Handler) CreateStaff(c *gin.Context) {
	var req model.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondWithBindError(c, err)
		return
	}

	staff, err := h.svc.CreateStaff(c.Request.Context(), middleware.CallerFrom(c), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, model.StaffSummary{
		ID:       staff.ID,
		FullName: staff.FullName(),
		Role:     staff.Role,
	})
}

func (h *Handler) setSession(c *gin.Context, token *model.TokenResponse) {
	if h.cookie.Name == "" {
		return
	}
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(h.cookie.Name, token.AccessToken, int(token.ExpiresIn), "/", h.cookie.Domain, h.cookie.Secure, true)
}
