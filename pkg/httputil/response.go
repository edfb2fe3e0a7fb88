package httputil

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/ehr-booking/pkg/errors"
	"github.com/jwalitptl/ehr-booking/pkg/validator"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// RespondWithSuccess sends a 200 response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Status: "success", Data: data})
}

func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{Status: "success", Data: data})
}

// RespondWithMessage sends a 200 response carrying only a message
func RespondWithMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, Response{Status: "success", Message: message})
}

// RespondWithError maps err through the error taxonomy. The full error is
// attached to the context for the error logger; the client only sees the
// public message.
func RespondWithError(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, Response{Status: "error", Message: errors.PublicMessage(err)})
}

// RespondWithBindError reports a malformed request body or query.
func RespondWithBindError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Response{Status: "error", Message: validator.Describe(err)})
}
