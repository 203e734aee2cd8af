package ginserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	gin "github.com/gin-gonic/gin"

	"innkeep/internal/domain/shared/faults"
	"innkeep/internal/domain/shared/storerr"
)

// respondError maps the fault taxonomy onto the wire shape. Anything
// outside the taxonomy is a 500 with no internal detail leaked.
func respondError(c *gin.Context, err error) {
	if f, ok := faults.As(err); ok {
		body := gin.H{
			"code":    f.Code(),
			"message": f.Error(),
		}
		var conflict *faults.ConflictError
		if errors.As(err, &conflict) {
			body["conflict_type"] = string(conflict.Type)
		}
		var transition *faults.StateTransitionError
		if errors.As(err, &transition) {
			body["current_state"] = transition.Current
			body["requested_state"] = transition.Requested
		}
		c.JSON(f.HTTPStatus(), gin.H{"error": body})
		return
	}
	var transient *storerr.TransientError
	if errors.As(err, &transient) || errors.Is(err, context.DeadlineExceeded) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{
			"code":    "storage_unavailable",
			"message": "storage temporarily unavailable",
		}})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
		"code":    "internal_error",
		"message": "internal error",
	}})
}

// parseDate accepts calendar dates and full timestamps; either way the
// value lands on a UTC day boundary downstream.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, raw)
}
