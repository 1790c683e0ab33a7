package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/artoo-backend/internal/middleware"
	"github.com/shinyyama/artoo-backend/internal/service"
)

// writeServiceError maps service sentinels onto the error envelope. Store
// failures never leak their detail to the client.
func writeServiceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return badRequest(c, err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, NewErrorResponse(codeForbidden, "not allowed"))
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusNotFound, NewErrorResponse(codeNotFound, err.Error()))
	case errors.Is(err, service.ErrInvalidState):
		return c.JSON(http.StatusConflict, NewErrorResponse(codeInvalidState, err.Error()))
	default:
		c.Logger().Errorf("request failed: %v", err)
		return c.JSON(http.StatusInternalServerError, NewErrorResponse(codeInternal, "internal error"))
	}
}

func callerUID(c echo.Context) string {
	uid, _ := c.Get(middleware.UIDKey).(string)
	return uid
}

func parseID(c echo.Context) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return id, err == nil && id != 0
}
