package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/ehr-booking/pkg/errors"
)

// ErrorLogger logs errors handlers attached with c.Error. Client errors other
// than authorization denials are expected traffic and stay quiet.
func ErrorLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, e := range c.Errors {
			status := errors.HTTPStatus(e.Err)
			var event = log.Debug()
			switch {
			case status >= 500:
				event = log.Error()
			case errors.Is(e.Err, errors.ErrUnauthorized):
				event = log.Warn()
			}
			event.
				Err(e.Err).
				Str("request_id", c.GetString(ContextRequestID)).
				Str("method", c.Request.Method).
				Str("route", c.FullPath()).
				Int("status", status).
				Msg("request error")
		}
	}
}
