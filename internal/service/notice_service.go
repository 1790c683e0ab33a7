package service

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EscrowContact is the administrative account buyers pay into and meet for
// direct exchanges.
type EscrowContact struct {
	Name    string
	Phone   string
	Address string
}

type BuyNotice struct {
	PurchaseID  uint64
	ArtworkID   uint64
	ArtworkName string
	PictureURL  string
	ArtistName  string
	Escrow      EscrowContact
	State       int
	IsPaid      int
	IsDelivery  *int
	IsRefunded  bool
	// Set only while payment is outstanding.
	Bank      string
	Account   string
	AmountDue *decimal.Decimal
	// Set only once paid.
	HasComment *bool
	CreatedAt  time.Time
}

type SellNotice struct {
	PurchaseID  uint64
	ArtworkID   uint64
	ArtworkName string
	PictureURL  string
	ArtistName  string
	Escrow      EscrowContact
	State       int
	IsDelivery  *int
	CreatedAt   time.Time
}

// NoticeService derives the per-role views of a user's purchases. Nothing it
// returns is persisted.
type NoticeService interface {
	Buys(ctx context.Context, uid string) ([]BuyNotice, error)
	Sells(ctx context.Context, uid string) ([]SellNotice, error)
}

type noticeService struct {
	store     repository.Store
	escrowUID string
	logger    *zap.Logger
}

func NewNoticeService(store repository.Store, escrowUID string, logger *zap.Logger) NoticeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &noticeService{store: store, escrowUID: escrowUID, logger: logger}
}

func (s *noticeService) Buys(ctx context.Context, uid string) ([]BuyNotice, error) {
	out := []BuyNotice{}
	if uid == "" {
		return out, nil
	}
	list, err := s.store.Purchases().ListByBuyer(ctx, uid)
	if err != nil {
		return nil, storeErr(err, "list buys")
	}
	if len(list) == 0 {
		return out, nil
	}
	escrow, err := s.escrow(ctx)
	if err != nil {
		return nil, err
	}
	j := newJoiner(ctx, s.store)
	for _, p := range list {
		st, ok := s.decode(p)
		if !ok {
			continue
		}
		art, pic, err := j.artwork(p.ArtworkID)
		if err != nil {
			return nil, err
		}
		artist, err := j.user(art.OwnerUID)
		if err != nil {
			return nil, err
		}
		n := BuyNotice{
			PurchaseID:  p.ID,
			ArtworkID:   p.ArtworkID,
			ArtworkName: art.Name,
			PictureURL:  pic,
			ArtistName:  artist.Name,
			Escrow:      contactOf(escrow),
			State:       p.State,
			CreatedAt:   p.CreatedAt,
		}
		if st.IsRefunded() {
			n.IsRefunded = true
			out = append(out, n)
			continue
		}
		n.IsDelivery = deliveryFlag(st)
		if st.IsPaid() {
			n.IsPaid = 1
			has := p.Comment != ""
			n.HasComment = &has
		} else {
			due := p.AmountDue()
			n.Bank = escrow.Bank
			n.Account = escrow.Account
			n.AmountDue = &due
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *noticeService) Sells(ctx context.Context, uid string) ([]SellNotice, error) {
	out := []SellNotice{}
	if uid == "" {
		return out, nil
	}
	list, err := s.store.Purchases().ListBySeller(ctx, uid)
	if err != nil {
		return nil, storeErr(err, "list sells")
	}
	if len(list) == 0 {
		return out, nil
	}
	escrow, err := s.escrow(ctx)
	if err != nil {
		return nil, err
	}
	j := newJoiner(ctx, s.store)
	seller, err := j.user(uid)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		st, ok := s.decode(p)
		if !ok {
			continue
		}
		art, pic, err := j.artwork(p.ArtworkID)
		if err != nil {
			return nil, err
		}
		n := SellNotice{
			PurchaseID:  p.ID,
			ArtworkID:   p.ArtworkID,
			ArtworkName: art.Name,
			PictureURL:  pic,
			ArtistName:  seller.Name,
			Escrow:      contactOf(escrow),
			State:       p.State,
			CreatedAt:   p.CreatedAt,
		}
		if st.IsPaid() {
			n.IsDelivery = deliveryFlag(st)
		}
		out = append(out, n)
	}
	return out, nil
}

func (s *noticeService) decode(p model.Purchase) (model.PurchaseState, bool) {
	st, err := model.DecodePurchaseState(p.State)
	if err != nil {
		s.logger.Debug("skipping purchase with unknown state",
			zap.Uint64("purchase_id", p.ID), zap.Int("state", p.State))
		return st, false
	}
	return st, true
}

// escrow returns an empty account when none is configured or seeded, so the
// views still render.
func (s *noticeService) escrow(ctx context.Context) (*model.User, error) {
	if s.escrowUID == "" {
		return &model.User{}, nil
	}
	u, err := s.store.Users().FindByUID(ctx, s.escrowUID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("escrow account missing", zap.String("uid", s.escrowUID))
		return &model.User{}, nil
	}
	if err != nil {
		return nil, storeErr(err, "escrow account")
	}
	return u, nil
}

func contactOf(u *model.User) EscrowContact {
	return EscrowContact{Name: u.Name, Phone: u.Phone, Address: u.Address}
}

func deliveryFlag(st model.PurchaseState) *int {
	v := 0
	if st.IsShipped() {
		v = 1
	}
	return &v
}

// joiner caches artwork and user lookups for the span of one view.
type joiner struct {
	ctx      context.Context
	store    repository.Store
	artworks map[uint64]*model.Artwork
	pictures map[uint64]string
	users    map[string]*model.User
}

func newJoiner(ctx context.Context, store repository.Store) *joiner {
	return &joiner{
		ctx:      ctx,
		store:    store,
		artworks: map[uint64]*model.Artwork{},
		pictures: map[uint64]string{},
		users:    map[string]*model.User{},
	}
}

func (j *joiner) artwork(id uint64) (*model.Artwork, string, error) {
	if a, ok := j.artworks[id]; ok {
		return a, j.pictures[id], nil
	}
	a, err := j.store.Artworks().FindByID(j.ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		a, err = &model.Artwork{ID: id}, nil
	}
	if err != nil {
		return nil, "", storeErr(err, "artwork")
	}
	pic, err := j.store.Artworks().FindPicture(j.ctx, id)
	if err != nil {
		return nil, "", storeErr(err, "artwork picture")
	}
	j.artworks[id] = a
	if pic != nil {
		j.pictures[id] = pic.URL
	}
	return a, j.pictures[id], nil
}

func (j *joiner) user(uid string) (*model.User, error) {
	if u, ok := j.users[uid]; ok {
		return u, nil
	}
	u, err := j.store.Users().FindByUID(j.ctx, uid)
	if errors.Is(err, repository.ErrNotFound) {
		u, err = &model.User{UID: uid}, nil
	}
	if err != nil {
		return nil, storeErr(err, "user")
	}
	j.users[uid] = u
	return u, nil
}
