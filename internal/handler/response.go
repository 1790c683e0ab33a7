package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Codes carried in the error envelope. Clients branch on these, not on the
// message text.
const (
	codeBadRequest   = "bad_request"
	codeUnauthorized = "unauthorized"
	codeForbidden    = "forbidden"
	codeNotFound     = "not_found"
	codeInvalidState = "invalid_state"
	codeInternal     = "internal_error"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error errorPayload `json:"error"`
}

func NewErrorResponse(code, message string) ErrorResponse {
	return ErrorResponse{
		Error: errorPayload{
			Code:    code,
			Message: message,
		},
	}
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, NewErrorResponse(codeBadRequest, message))
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, NewErrorResponse(codeUnauthorized, "missing uid"))
}

// invalidID answers a path id that is not a positive integer, e.g. "invalid purchase id".
func invalidID(c echo.Context, what string) error {
	return badRequest(c, "invalid "+what+" id")
}
