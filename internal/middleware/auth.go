package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ehr-booking/internal/model"
	"github.com/jwalitptl/ehr-booking/pkg/errors"
	"github.com/jwalitptl/ehr-booking/pkg/httputil"
)

const ContextCaller = "caller"

// Authenticator turns a session token into a caller.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (model.Caller, error)
}

type AuthMiddleware struct {
	auth       Authenticator
	cookieName string
}

func NewAuthMiddleware(auth Authenticator, cookieName string) *AuthMiddleware {
	return &AuthMiddleware{auth: auth, cookieName: cookieName}
}

// token reads a Bearer header first and falls back to the session cookie.
func (m *AuthMiddleware) token(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if scheme, tok, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	if m.cookieName != "" {
		if tok, err := c.Cookie(m.cookieName); err == nil {
			return tok
		}
	}
	return ""
}

// Authenticate requires a session that resolves to a known identity.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := m.auth.Authenticate(c.Request.Context(), m.token(c))
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}
		if caller.IsAnonymous() {
			httputil.RespondWithError(c, errors.Unauthenticated("authentication required"))
			return
		}
		c.Set(ContextCaller, caller)
		c.Next()
	}
}

// Optional resolves the session when there is one. Missing or unusable
// tokens leave the request anonymous.
func (m *AuthMiddleware) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := m.auth.Authenticate(c.Request.Context(), m.token(c))
		if err != nil && !errors.Is(err, errors.ErrUnauthenticated) {
			httputil.RespondWithError(c, err)
			return
		}
		c.Set(ContextCaller, caller)
		c.Next()
	}
}

// RequireStaffRole must run after Authenticate.
func RequireStaffRole(roles ...model.StaffRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerFrom(c).HasRole(roles...) {
			httputil.RespondWithError(c, errors.Unauthorized("staff role required"))
			return
		}
		c.Next()
	}
}

// CallerFrom returns the caller stored by the auth middleware, or Anonymous.
func CallerFrom(c *gin.Context) model.Caller {
	if v, ok := c.Get(ContextCaller); ok {
		if caller, ok := v.(model.Caller); ok {
			return caller
		}
	}
	return model.AnonymousCaller()
}
