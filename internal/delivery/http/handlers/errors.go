package handlers

import (
	"errors"
	"net/http"

	"github.com/LavaJover/tourhub-moderation-service/internal/delivery/http/dto/response"
	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/gin-gonic/gin"
)

var errStatus = []struct {
	err    error
	status int
}{
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrAlreadyDecided, http.StatusConflict},
	{domain.ErrInvalidTransition, http.StatusConflict},
	{domain.ErrCapacityExceeded, http.StatusConflict},
	{domain.ErrDuplicate, http.StatusConflict},
	{domain.ErrMissingReason, http.StatusUnprocessableEntity},
	{domain.ErrMissingSchedule, http.StatusUnprocessableEntity},
	{domain.ErrInvalidInterval, http.StatusUnprocessableEntity},
	{domain.ErrInvalidInput, http.StatusUnprocessableEntity},
	{domain.ErrInactiveType, http.StatusUnprocessableEntity},
}

// StatusOf maps a usecase error to its HTTP status.
func StatusOf(err error) int {
	for _, e := range errStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	return http.StatusInternalServerError
}

func writeError(c *gin.Context, err error) {
	status := StatusOf(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal error"
	}
	c.AbortWithStatusJSON(status, response.ErrorResponse{Success: false, Error: message})
}
