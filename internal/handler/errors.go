package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/userhub/backend/internal/model"
	"github.com/userhub/backend/internal/service"
)

// writeError is the single translation point from service errors to HTTP.
// Internal causes are logged and never echoed.
func writeError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid input", Messages: verr.Messages})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid input"})
	case errors.Is(err, service.ErrSignupDisabled):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: "signup disabled"})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: "unauthorized"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: "forbidden"})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: "not found"})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: "email already in use"})
	default:
		requestLogger(c).WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
	}
}
