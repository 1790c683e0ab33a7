package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shinyyama/artoo-backend/internal/metrics"
	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/pricing"
	"github.com/shinyyama/artoo-backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const ReasonArtworkUnavailable = "artwork_unavailable"

type RefundOutcome string

const (
	RefundCancelled       RefundOutcome = "cancelled"
	RefundRefunded        RefundOutcome = "refunded"
	RefundAlreadyRefunded RefundOutcome = "already_refunded"
	RefundNothingToRefund RefundOutcome = "nothing_to_refund"
)

type CreatePurchaseInput struct {
	ArtworkID        uint64
	BuyerUID         string
	Channel          string
	RecipientName    string
	RecipientAddress string
}

// PurchaseSummary describes what was bought, for the confirmation screen.
type PurchaseSummary struct {
	ArtworkName    string
	Price          decimal.Decimal
	ArtistName     string
	ArtistSchool   string
	DeliveryCharge int64
}

type CreateResult struct {
	Created  bool
	Reason   string
	Purchase *model.Purchase
	Summary  *PurchaseSummary
}

type RefundResult struct {
	Outcome RefundOutcome
}

type PurchaseService interface {
	Create(ctx context.Context, in CreatePurchaseInput) (*CreateResult, error)
	Get(ctx context.Context, purchaseID uint64, uid string) (*model.Purchase, error)
	ConfirmPayment(ctx context.Context, purchaseID uint64) (*model.Purchase, error)
	AttachComment(ctx context.Context, purchaseID uint64, buyerUID, text string) (*model.Purchase, error)
	RequestRefund(ctx context.Context, purchaseID uint64) (*RefundResult, error)
	MarkDispatched(ctx context.Context, purchaseID uint64, sellerUID string) (*model.Purchase, error)
	MarkReceived(ctx context.Context, purchaseID uint64, buyerUID string) (*model.Purchase, error)
}

type purchaseService struct {
	store  repository.Store
	now    func() time.Time
	logger *zap.Logger
}

func NewPurchaseService(store repository.Store, now func() time.Time, logger *zap.Logger) PurchaseService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &purchaseService{store: store, now: now, logger: logger}
}

func (s *purchaseService) Create(ctx context.Context, in CreatePurchaseInput) (*CreateResult, error) {
	in.BuyerUID = strings.TrimSpace(in.BuyerUID)
	in.RecipientName = strings.TrimSpace(in.RecipientName)
	in.RecipientAddress = strings.TrimSpace(in.RecipientAddress)
	if in.ArtworkID == 0 {
		return nil, validationf("artwork is required")
	}
	if in.BuyerUID == "" {
		return nil, validationf("buyer is required")
	}
	channel, ok := model.ParseChannel(in.Channel)
	if !ok {
		return nil, validationf("channel must be direct or shipped")
	}
	if channel == model.ChannelShipped && (in.RecipientName == "" || in.RecipientAddress == "") {
		return nil, validationf("recipient name and address are required for shipped purchases")
	}

	var result *CreateResult
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		art, err := tx.Artworks().FindByIDForUpdate(ctx, in.ArtworkID)
		if err != nil {
			return storeErr(err, "artwork")
		}
		if art.OwnerUID == in.BuyerUID {
			return validationf("cannot buy your own artwork")
		}
		if art.PurchaseState != model.AvailabilityAvailable {
			result = &CreateResult{Created: false, Reason: ReasonArtworkUnavailable}
			return nil
		}

		state := model.InitialPurchaseState(channel)
		var fee int64
		if channel == model.ChannelShipped {
			fee = pricing.DeliveryCharge(art.Price, art.Size)
		}
		p := &model.Purchase{
			ArtworkID:   art.ID,
			BuyerUID:    in.BuyerUID,
			SellerUID:   art.OwnerUID,
			State:       state.Code(),
			Price:       art.Price,
			DeliveryFee: fee,
			CreatedAt:   s.now(),
		}
		if channel == model.ChannelShipped {
			p.RecipientName = in.RecipientName
			p.RecipientAddress = in.RecipientAddress
		}
		if err := tx.Purchases().Create(ctx, p); err != nil {
			return storeErr(err, "create purchase")
		}
		if err := tx.Artworks().UpdatePurchaseState(ctx, art.ID, state.Availability()); err != nil {
			return storeErr(err, "reserve artwork")
		}

		summary := &PurchaseSummary{
			ArtworkName:    art.Name,
			Price:          art.Price,
			DeliveryCharge: fee,
		}
		if artist, err := tx.Users().FindByUID(ctx, art.OwnerUID); err == nil {
			summary.ArtistName = artist.Name
			summary.ArtistSchool = artist.School
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storeErr(err, "artist")
		}
		result = &CreateResult{Created: true, Purchase: p, Summary: summary}
		return nil
	})
	if err != nil {
		s.record("create", err)
		return nil, err
	}
	if result.Created {
		metrics.RecordTransition("create", "created")
		s.logger.Info("purchase created",
			zap.Uint64("purchase_id", result.Purchase.ID),
			zap.Uint64("artwork_id", in.ArtworkID),
			zap.Int("state", result.Purchase.State))
	} else {
		metrics.RecordTransition("create", result.Reason)
	}
	return result, nil
}

func (s *purchaseService) Get(ctx context.Context, purchaseID uint64, uid string) (*model.Purchase, error) {
	p, err := s.store.Purchases().FindByID(ctx, purchaseID)
	if err != nil {
		return nil, storeErr(err, "purchase")
	}
	if uid != p.BuyerUID && uid != p.SellerUID {
		return nil, ErrUnauthorized
	}
	return p, nil
}

func (s *purchaseService) ConfirmPayment(ctx context.Context, purchaseID uint64) (*model.Purchase, error) {
	var out *model.Purchase
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		p, st, err := lockWithState(ctx, tx, purchaseID)
		if err != nil {
			return err
		}
		out = p
		switch {
		case st.IsRefunded():
			return invalidStatef("purchase %d was refunded", purchaseID)
		case st.IsPaid():
			return nil
		}
		next := st.WithStage(model.StagePaid)
		if err := tx.Purchases().UpdateState(ctx, p.ID, next.Code()); err != nil {
			return storeErr(err, "update purchase state")
		}
		if err := tx.Artworks().UpdatePurchaseState(ctx, p.ArtworkID, next.Availability()); err != nil {
			return storeErr(err, "mark artwork sold")
		}
		p.State = next.Code()
		return nil
	})
	s.record("confirm_payment", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *purchaseService) AttachComment(ctx context.Context, purchaseID uint64, buyerUID, text string) (*model.Purchase, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, validationf("comment is required")
	}
	var out *model.Purchase
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		p, st, err := lockWithState(ctx, tx, purchaseID)
		if err != nil {
			return err
		}
		if p.BuyerUID != buyerUID {
			return ErrUnauthorized
		}
		if !st.Commentable() {
			return invalidStatef("purchase %d is not paid", purchaseID)
		}
		if err := tx.Purchases().UpdateComment(ctx, p.ID, text); err != nil {
			return storeErr(err, "update comment")
		}
		p.Comment = text
		out = p
		return nil
	})
	s.record("comment", err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *purchaseService) RequestRefund(ctx context.Context, purchaseID uint64) (*RefundResult, error) {
	var outcome RefundOutcome
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		p, st, err := lockWithState(ctx, tx, purchaseID)
		if errors.Is(err, ErrNotFound) {
			outcome = RefundNothingToRefund
			return nil
		}
		if err != nil {
			return err
		}
		switch {
		case st.IsRefunded():
			outcome = RefundAlreadyRefunded
			return nil
		case st.IsAwaitingPayment():
			if err := tx.Purchases().Delete(ctx, p.ID); err != nil {
				return storeErr(err, "delete purchase")
			}
			outcome = RefundCancelled
		case st.Refundable():
			if err := tx.Purchases().UpdateState(ctx, p.ID, model.StateRefunded.Code()); err != nil {
				return storeErr(err, "update purchase state")
			}
			outcome = RefundRefunded
		default:
			return invalidStatef("purchase %d cannot be refunded in state %s", purchaseID, st)
		}
		if err := tx.Artworks().UpdatePurchaseState(ctx, p.ArtworkID, model.AvailabilityAvailable); err != nil {
			return storeErr(err, "release artwork")
		}
		return nil
	})
	if err != nil {
		s.record("refund", err)
		return nil, err
	}
	metrics.RecordTransition("refund", string(outcome))
	return &RefundResult{Outcome: outcome}, nil
}

func (s *purchaseService) MarkDispatched(ctx context.Context, purchaseID uint64, sellerUID string) (*model.Purchase, error) {
	return s.advance(ctx, purchaseID, "dispatch", func(p *model.Purchase, st model.PurchaseState) (model.PurchaseState, error) {
		if p.SellerUID != sellerUID {
			return st, ErrUnauthorized
		}
		switch st {
		case model.StateShippedDispatched:
			return st, nil
		case model.StateShippedPaid:
			return st.WithStage(model.StageDispatched), nil
		}
		return st, invalidStatef("purchase %d cannot be dispatched in state %s", purchaseID, st)
	})
}

func (s *purchaseService) MarkReceived(ctx context.Context, purchaseID uint64, buyerUID string) (*model.Purchase, error) {
	return s.advance(ctx, purchaseID, "receive", func(p *model.Purchase, st model.PurchaseState) (model.PurchaseState, error) {
		if p.BuyerUID != buyerUID {
			return st, ErrUnauthorized
		}
		switch st {
		case model.StateDirectDelivered, model.StateShippedDelivered:
			return st, nil
		case model.StateDirectPaid, model.StateShippedDispatched:
			return st.WithStage(model.StageDelivered), nil
		}
		return st, invalidStatef("purchase %d cannot be received in state %s", purchaseID, st)
	})
}

// advance moves a paid purchase to the stage chosen by next, which sees the
// locked row. The artwork stays sold, so only the purchase row changes.
// Returning the current state leaves the row untouched.
func (s *purchaseService) advance(ctx context.Context, purchaseID uint64, transition string,
	next func(*model.Purchase, model.PurchaseState) (model.PurchaseState, error)) (*model.Purchase, error) {
	var out *model.Purchase
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		p, st, err := lockWithState(ctx, tx, purchaseID)
		if err != nil {
			return err
		}
		to, err := next(p, st)
		if err != nil {
			return err
		}
		if to != st {
			if err := tx.Purchases().UpdateState(ctx, p.ID, to.Code()); err != nil {
				return storeErr(err, "update purchase state")
			}
			p.State = to.Code()
		}
		out = p
		return nil
	})
	s.record(transition, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *purchaseService) record(transition string, err error) {
	switch {
	case err == nil:
		metrics.RecordTransition(transition, "ok")
	case errors.Is(err, ErrInvalidState):
		metrics.RecordTransition(transition, "invalid_state")
	case errors.Is(err, ErrData):
		metrics.RecordTransition(transition, "error")
		s.logger.Error("purchase transition failed", zap.String("transition", transition), zap.Error(err))
	default:
		metrics.RecordTransition(transition, "rejected")
	}
}

// lockWithState reads and locks a purchase inside a transaction and decodes
// its state.
func lockWithState(ctx context.Context, tx repository.Store, id uint64) (*model.Purchase, model.PurchaseState, error) {
	p, err := tx.Purchases().FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, model.PurchaseState{}, storeErr(err, "purchase")
	}
	st, err := model.DecodePurchaseState(p.State)
	if err != nil {
		return nil, model.PurchaseState{}, storeErr(err, "purchase state")
	}
	return p, st, nil
}
