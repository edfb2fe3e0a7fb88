package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/ehr-booking/pkg/errors"
	"github.com/jwalitptl/ehr-booking/pkg/httputil"
)

// ParamUUID parses a path parameter and answers 400 when it is malformed.
func ParamUUID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument(fmt.Sprintf("invalid %s ID", label), err))
		return uuid.Nil, false
	}
	return id, true
}

// QueryTime parses an optional RFC 3339 query parameter. An absent
// parameter yields nil.
func QueryTime(c *gin.Context, key string) (*time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		httputil.RespondWithError(c, errors.InvalidArgument(fmt.Sprintf("%s must be an RFC 3339 timestamp", key), err))
		return nil, false
	}
	return &t, true
}
