package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/service"
)

type PurchaseHandler struct {
	svc service.PurchaseService
}

func NewPurchaseHandler(svc service.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc}
}

type PurchaseResponse struct {
	ID               uint64 `json:"id"`
	ArtworkID        uint64 `json:"artworkId"`
	BuyerUID         string `json:"buyerUid"`
	SellerUID        string `json:"sellerUid"`
	State            int    `json:"state"`
	Price            int64  `json:"price"`
	DeliveryFee      int64  `json:"deliveryFee"`
	Comment          string `json:"comment,omitempty"`
	RecipientName    string `json:"recipientName,omitempty"`
	RecipientAddress string `json:"recipientAddress,omitempty"`
	CreatedAt        string `json:"createdAt"`
	UpdatedAt        string `json:"updatedAt"`
}

func toPurchaseResponse(p *model.Purchase) PurchaseResponse {
	return PurchaseResponse{
		ID:               p.ID,
		ArtworkID:        p.ArtworkID,
		BuyerUID:         p.BuyerUID,
		SellerUID:        p.SellerUID,
		State:            p.State,
		Price:            p.Price.IntPart(),
		DeliveryFee:      p.DeliveryFee,
		Comment:          p.Comment,
		RecipientName:    p.RecipientName,
		RecipientAddress: p.RecipientAddress,
		CreatedAt:        p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        p.UpdatedAt.Format(time.RFC3339),
	}
}

type CreatePurchaseRequest struct {
	Channel          string `json:"channel"`
	RecipientName    string `json:"recipientName"`
	RecipientAddress string `json:"recipientAddress"`
}

type PurchaseSummaryResponse struct {
	ArtworkName    string `json:"artworkName"`
	Price          int64  `json:"price"`
	ArtistName     string `json:"artistName"`
	ArtistSchool   string `json:"artistSchool"`
	DeliveryCharge int64  `json:"deliveryCharge"`
}

type CreatePurchaseResponse struct {
	Purchase PurchaseResponse        `json:"purchase"`
	Summary  PurchaseSummaryResponse `json:"summary"`
}

func (h *PurchaseHandler) Create(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	artworkID, ok := parseID(c)
	if !ok {
		return invalidID(c, "artwork")
	}
	var req CreatePurchaseRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	res, err := h.svc.Create(c.Request().Context(), service.CreatePurchaseInput{
		ArtworkID:        artworkID,
		BuyerUID:         uid,
		Channel:          req.Channel,
		RecipientName:    req.RecipientName,
		RecipientAddress: req.RecipientAddress,
	})
	if err != nil {
		return writeServiceError(c, err)
	}
	if !res.Created {
		return c.JSON(http.StatusConflict, NewErrorResponse(res.Reason, "artwork is not available"))
	}
	return c.JSON(http.StatusCreated, CreatePurchaseResponse{
		Purchase: toPurchaseResponse(res.Purchase),
		Summary: PurchaseSummaryResponse{
			ArtworkName:    res.Summary.ArtworkName,
			Price:          res.Summary.Price.IntPart(),
			ArtistName:     res.Summary.ArtistName,
			ArtistSchool:   res.Summary.ArtistSchool,
			DeliveryCharge: res.Summary.DeliveryCharge,
		},
	})
}

func (h *PurchaseHandler) Get(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "purchase")
	}
	p, err := h.svc.Get(c.Request().Context(), id, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(p))
}

func (h *PurchaseHandler) Comment(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "purchase")
	}
	var body struct {
		Comment string `json:"comment"`
	}
	if err := c.Bind(&body); err != nil {
		return badRequest(c, "invalid json")
	}
	p, err := h.svc.AttachComment(c.Request().Context(), id, uid, body.Comment)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(p))
}

// Refund only lets a party to the purchase through; the outcome itself is
// decided by the lifecycle.
func (h *PurchaseHandler) Refund(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "purchase")
	}
	ctx := c.Request().Context()
	if _, err := h.svc.Get(ctx, id, uid); err != nil && !errors.Is(err, service.ErrNotFound) {
		return writeServiceError(c, err)
	}
	res, err := h.svc.RequestRefund(ctx, id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{"outcome": string(res.Outcome)})
}

func (h *PurchaseHandler) Dispatch(c echo.Context) error {
	return h.advance(c, h.svc.MarkDispatched)
}

func (h *PurchaseHandler) Receive(c echo.Context) error {
	return h.advance(c, h.svc.MarkReceived)
}

func (h *PurchaseHandler) ConfirmPayment(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "purchase")
	}
	p, err := h.svc.ConfirmPayment(c.Request().Context(), id)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(p))
}

type stageFunc func(ctx context.Context, purchaseID uint64, uid string) (*model.Purchase, error)

func (h *PurchaseHandler) advance(c echo.Context, fn stageFunc) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	id, ok := parseID(c)
	if !ok {
		return invalidID(c, "purchase")
	}
	p, err := fn(c.Request().Context(), id, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseResponse(p))
}
