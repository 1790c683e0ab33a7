package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shinyyama/artoo-backend/internal/service"
)

type NoticeHandler struct {
	notices  service.NoticeService
	displays service.DisplayService
}

func NewNoticeHandler(notices service.NoticeService, displays service.DisplayService) *NoticeHandler {
	return &NoticeHandler{notices: notices, displays: displays}
}

type EscrowResponse struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type BuyNoticeResponse struct {
	PurchaseID  uint64         `json:"purchaseId"`
	ArtworkID   uint64         `json:"artworkId"`
	ArtworkName string         `json:"artworkName"`
	PictureURL  string         `json:"pictureUrl,omitempty"`
	ArtistName  string         `json:"artistName"`
	Escrow      EscrowResponse `json:"escrow"`
	State       int            `json:"state"`
	IsPaid      int            `json:"isPaid"`
	IsDelivery  *int           `json:"isDelivery,omitempty"`
	IsRefunded  bool           `json:"isRefunded"`
	Bank        string         `json:"bank,omitempty"`
	Account     string         `json:"account,omitempty"`
	AmountDue   *int64         `json:"amountDue,omitempty"`
	HasComment  *bool          `json:"hasComment,omitempty"`
	Date        string         `json:"date"`
}

type SellNoticeResponse struct {
	PurchaseID  uint64         `json:"purchaseId"`
	ArtworkID   uint64         `json:"artworkId"`
	ArtworkName string         `json:"artworkName"`
	PictureURL  string         `json:"pictureUrl,omitempty"`
	ArtistName  string         `json:"artistName"`
	Escrow      EscrowResponse `json:"escrow"`
	State       int            `json:"state"`
	IsDelivery  *int           `json:"isDelivery,omitempty"`
	Date        string         `json:"date"`
}

type DisplayApplicationResponse struct {
	ContentID    uint64 `json:"contentId"`
	DisplayID    uint64 `json:"displayId"`
	DisplayTitle string `json:"displayTitle"`
	ApplyStartAt string `json:"applyStartAt"`
	ApplyEndAt   string `json:"applyEndAt"`
	ArtworkID    uint64 `json:"artworkId"`
	ArtworkName  string `json:"artworkName"`
	UserUID      string `json:"userUid"`
	UserName     string `json:"userName"`
	State        int    `json:"state"`
	AppliedAt    string `json:"appliedAt"`
}

func escrowResponse(e service.EscrowContact) EscrowResponse {
	return EscrowResponse{Name: e.Name, Phone: e.Phone, Address: e.Address}
}

func (h *NoticeHandler) Buys(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.notices.Buys(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	if len(list) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	resp := make([]BuyNoticeResponse, 0, len(list))
	for _, n := range list {
		r := BuyNoticeResponse{
			PurchaseID:  n.PurchaseID,
			ArtworkID:   n.ArtworkID,
			ArtworkName: n.ArtworkName,
			PictureURL:  n.PictureURL,
			ArtistName:  n.ArtistName,
			Escrow:      escrowResponse(n.Escrow),
			State:       n.State,
			IsPaid:      n.IsPaid,
			IsDelivery:  n.IsDelivery,
			IsRefunded:  n.IsRefunded,
			Bank:        n.Bank,
			Account:     n.Account,
			HasComment:  n.HasComment,
			Date:        n.CreatedAt.Format("2006-01-02"),
		}
		if n.AmountDue != nil {
			due := n.AmountDue.IntPart()
			r.AmountDue = &due
		}
		resp = append(resp, r)
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *NoticeHandler) Sells(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.notices.Sells(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	if len(list) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	resp := make([]SellNoticeResponse, 0, len(list))
	for _, n := range list {
		resp = append(resp, SellNoticeResponse{
			PurchaseID:  n.PurchaseID,
			ArtworkID:   n.ArtworkID,
			ArtworkName: n.ArtworkName,
			PictureURL:  n.PictureURL,
			ArtistName:  n.ArtistName,
			Escrow:      escrowResponse(n.Escrow),
			State:       n.State,
			IsDelivery:  n.IsDelivery,
			Date:        n.CreatedAt.Format("2006-01-02"),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *NoticeHandler) Displays(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	list, err := h.displays.CurrentApplications(c.Request().Context(), uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	if len(list) == 0 {
		return c.NoContent(http.StatusNoContent)
	}
	resp := make([]DisplayApplicationResponse, 0, len(list))
	for _, a := range list {
		resp = append(resp, DisplayApplicationResponse{
			ContentID:    a.ContentID,
			DisplayID:    a.Display.ID,
			DisplayTitle: a.Display.Title,
			ApplyStartAt: a.Display.ApplyStartAt.Format(time.RFC3339),
			ApplyEndAt:   a.Display.ApplyEndAt.Format(time.RFC3339),
			ArtworkID:    a.ArtworkID,
			ArtworkName:  a.ArtworkName,
			UserUID:      a.UserUID,
			UserName:     a.UserName,
			State:        a.State,
			AppliedAt:    a.AppliedAt.Format("2006-01-02"),
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *NoticeHandler) Apply(c echo.Context) error {
	uid := callerUID(c)
	if uid == "" {
		return unauthorized(c)
	}
	displayID, ok := parseID(c)
	if !ok {
		return invalidID(c, "display")
	}
	var body struct {
		ArtworkID uint64 `json:"artworkId"`
	}
	if err := c.Bind(&body); err != nil || body.ArtworkID == 0 {
		return badRequest(c, "artworkId is required")
	}
	dc, err := h.displays.Apply(c.Request().Context(), displayID, body.ArtworkID, uid)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]uint64{"contentId": dc.ID})
}
