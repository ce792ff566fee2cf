// Package httperr maps domain errors onto HTTP responses.
package httperr

import (
	"errors"
	"net/http"

	"github.com/fekuna/omnipos-bloodbank-service/internal/model"
	"github.com/fekuna/omnipos-bloodbank-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func Status(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateUsername),
		errors.Is(err, model.ErrDuplicateDonor),
		errors.Is(err, model.ErrDonorHasDonations),
		errors.Is(err, model.ErrInsufficientInventory):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as JSON. Internal failures are logged and hidden from
// the client.
func Respond(c *gin.Context, log logger.ZapLogger, err error) {
	status := Status(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		msg = "internal error"
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
