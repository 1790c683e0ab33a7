package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/service"
	"github.com/shopspring/decimal"
)

type ArtworkHandler struct {
	svc   service.ArtworkService
	likes service.LikeService
}

func NewArtworkHandler(svc service.ArtworkService, likes service.LikeService) *ArtworkHandler {
	return &ArtworkHandler{svc: svc, likes: likes}
}

type ArtworkResponse struct {
	ID            uint64 `json:"id"`
	OwnerUID      string `json:"ownerUid"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int64  `json:"price"`
	Size          int    `json:"size"`
	SizeClass     string `json:"sizeClass,omitempty"`
	Form          string `json:"form,omitempty"`
	Category      string `json:"category,omitempty"`
	PurchaseState int    `json:"purchaseState"`
	LikeCount     int64  `json:"likeCount"`
	CoverURL      string `json:"coverUrl,omitempty"`
	ArtistName    string `json:"artistName,omitempty"`
	Liked         bool   `json:"liked"`
	CreatedAt     string `json:"createdAt"`
}

func toArtworkResponse(a *model.Artwork) ArtworkResponse {
	return ArtworkResponse{
		ID:            a.ID,
		OwnerUID:      a.OwnerUID,
		Name:          a.Name,
		Description:   a.Description,
		Price:         a.Price.IntPart(),
		Size:          a.Size,
		Form:          a.Form,
		Category:      a.Category,
		PurchaseState: int(a.PurchaseState),
		LikeCount:     a.LikeCount,
		CreatedAt:     a.CreatedAt.Format(time.RFC3339),
	}
}

type CreateArtworkRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       int64    `json:"price"`
	Size        int      `json:"size"`
	Form        string   `json:"form"`
	Category    string   `json:"category"`
	PictureURLs []string `json:"pictureUrls"`
}

func (h *ArtworkHandler) Create(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	var req CreateArtworkRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	a, err := h.svc.Create(c.Request().Context(), service.CreateArtworkInput{
		OwnerUID:    uid,
		Name:        req.Name,
		Description: req.Description,
		Price:       decimal.NewFromInt(req.Price),
		Size:        req.Size,
		Form:        req.Form,
		Category:    req.Category,
		PictureURLs: req.PictureURLs,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toArtworkResponse(a))
}

// Get is public; a signed-in viewer also learns whether they liked it.
func (h *ArtworkHandler) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "artwork")
	}
	d, err := h.svc.Get(c.Request().Context(), id, callerUID(c))
	if err != nil {
		return writeServiceError(c, err)
	}
	resp := toArtworkResponse(&d.Artwork)
	resp.SizeClass = d.SizeClass
	resp.CoverURL = d.CoverURL
	resp.ArtistName = d.ArtistName
	resp.Liked = d.Liked
	return c.JSON(http.StatusOK, resp)
}

func (h *ArtworkHandler) DeliveryFee(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "artwork")
	}
	fee, err := h.svc.DeliveryFee(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int64{"deliveryFee": fee})
}

func (h *ArtworkHandler) ToggleLike(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "artwork")
	}
	res, err := h.likes.Toggle(c.Request().Context(), id, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"liked":     res.Liked,
		"likeCount": res.Count,
	})
}

type LikeResponse struct {
	UserUID   string `json:"userUid"`
	CreatedAt string `json:"createdAt"`
}

func (h *ArtworkHandler) Likes(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "artwork")
	}
	list, count, err := h.likes.List(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	resp := make([]LikeResponse, 0, len(list))
	for _, l := range list {
		resp = append(resp, LikeResponse{UserUID: l.UserUID, CreatedAt: l.CreatedAt.Format(time.RFC3339)})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"likes":     resp,
		"likeCount": count,
	})
}
