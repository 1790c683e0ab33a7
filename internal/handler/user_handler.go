package handler

import (
	"context"
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/shinyyama/artoo-backend/internal/service"
)

// FirebaseUsers looks up accounts that have not saved a profile yet.
type FirebaseUsers interface {
	GetUser(ctx context.Context, uid string) (*auth.UserRecord, error)
}

type UserHandler struct {
	svc      service.UserService
	firebase FirebaseUsers
}

// NewUserHandler accepts a nil firebase client; profiles then come only from
// the database.
func NewUserHandler(svc service.UserService, client FirebaseUsers) *UserHandler {
	return &UserHandler{svc: svc, firebase: client}
}

type PublicUserResponse struct {
	UID         string  `json:"uid"`
	DisplayName string  `json:"displayName"`
	School      string  `json:"school,omitempty"`
	PhotoURL    *string `json:"photoURL"`
}

func (h *UserHandler) GetPublic(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return badRequest(c, "invalid uid")
	}
	ctx := c.Request().Context()
	u, err := h.svc.Get(ctx, uid)
	if err == nil {
		return c.JSON(http.StatusOK, PublicUserResponse{UID: u.UID, DisplayName: u.Name, School: u.School})
	}
	if !errors.Is(err, service.ErrNotFound) || h.firebase == nil {
		return writeServiceError(c, err)
	}
	rec, ferr := h.firebase.GetUser(ctx, uid)
	if ferr != nil {
		return c.JSON(http.StatusNotFound, NewErrorResponse(codeNotFound, "user not found"))
	}
	return c.JSON(http.StatusOK, PublicUserResponse{
		UID:         rec.UID,
		DisplayName: rec.DisplayName,
		PhotoURL:    strPtrOrNil(rec.PhotoURL),
	})
}

type UpdateProfileRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Bank    string `json:"bank"`
	Account string `json:"account"`
	School  string `json:"school"`
}

func (h *UserHandler) UpdateProfile(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	u, err := h.svc.UpdateProfile(c.Request().Context(), uid, service.ProfileInput(req))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, PublicUserResponse{UID: u.UID, DisplayName: u.Name, School: u.School})
}

func strPtrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
