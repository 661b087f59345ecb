package http

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/labstack/echo/v4"
)

// fail writes the response for err. Internal failures are logged and reported
// without their cause.
func (s *Server) fail(c echo.Context, err error) error {
	status, msg := http.StatusInternalServerError, "internal error"

	switch {
	case errors.Is(err, common.ErrInternal):
	case errors.Is(err, common.ErrValidation):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrDuplicateEmail):
		status, msg = http.StatusBadRequest, "email already registered"
	case errors.Is(err, common.ErrConflict):
		status, msg = http.StatusBadRequest, "conflict"
	case errors.Is(err, common.ErrInvalidCredentials):
		status, msg = http.StatusBadRequest, "invalid credentials"
	case errors.Is(err, common.ErrInvalidOrExpired):
		status, msg = http.StatusBadRequest, "invalid or expired reset token"
	case errors.Is(err, common.ErrUnauthorized):
		status, msg = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, common.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	}

	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request().Context(), "request failed", "path", c.Path(), "error", err)
	}
	return c.JSON(status, errorResponse{Error: msg})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, errorResponse{Error: msg})
}
