package service

import (
	"context"
	"errors"
	"strings"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/pricing"
	"github.com/shinyyama/artoo-backend/internal/repository"
	"github.com/shopspring/decimal"
)

type CreateArtworkInput struct {
	OwnerUID    string
	Name        string
	Description string
	Price       decimal.Decimal
	Size        int
	Form        string
	Category    string
	PictureURLs []string
}

type ArtworkDetail struct {
	Artwork    model.Artwork
	CoverURL   string
	SizeClass  string
	ArtistName string
	Liked      bool
}

type ArtworkService interface {
	Create(ctx context.Context, in CreateArtworkInput) (*model.Artwork, error)
	Get(ctx context.Context, id uint64, viewerUID string) (*ArtworkDetail, error)
	DeliveryFee(ctx context.Context, id uint64) (int64, error)
}

type artworkService struct {
	store repository.Store
	likes LikeService
}

func NewArtworkService(store repository.Store, likes LikeService) ArtworkService {
	return &artworkService{store: store, likes: likes}
}

func (s *artworkService) Create(ctx context.Context, in CreateArtworkInput) (*model.Artwork, error) {
	name := strings.TrimSpace(in.Name)
	if in.OwnerUID == "" {
		return nil, ErrUnauthorized
	}
	if name == "" || len(name) > 120 {
		return nil, validationf("invalid name")
	}
	if in.Price.IsNegative() || !in.Price.Equal(in.Price.Truncate(0)) {
		return nil, validationf("price must be a non-negative whole amount")
	}
	if in.Size <= 0 {
		return nil, validationf("size must be positive")
	}
	for _, u := range in.PictureURLs {
		if strings.HasPrefix(strings.TrimSpace(u), "data:") {
			return nil, validationf("picture must be a URL, not data URI")
		}
	}

	art := &model.Artwork{
		OwnerUID:      in.OwnerUID,
		Name:          name,
		Description:   strings.TrimSpace(in.Description),
		Price:         in.Price,
		Size:          in.Size,
		Form:          strings.TrimSpace(in.Form),
		Category:      strings.TrimSpace(in.Category),
		PurchaseState: model.AvailabilityAvailable,
	}
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := tx.Artworks().Create(ctx, art); err != nil {
			return storeErr(err, "create artwork")
		}
		for _, u := range in.PictureURLs {
			u = strings.TrimSpace(u)
			if u == "" {
				continue
			}
			if err := tx.Artworks().AddPicture(ctx, &model.ArtworkPicture{ArtworkID: art.ID, URL: u}); err != nil {
				return storeErr(err, "add picture")
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return art, nil
}

func (s *artworkService) Get(ctx context.Context, id uint64, viewerUID string) (*ArtworkDetail, error) {
	art, err := s.store.Artworks().FindByID(ctx, id)
	if err != nil {
		return nil, storeErr(err, "artwork")
	}
	d := &ArtworkDetail{Artwork: *art, SizeClass: pricing.SizeClass(art.Size)}
	pic, err := s.store.Artworks().FindPicture(ctx, id)
	if err != nil {
		return nil, storeErr(err, "artwork picture")
	}
	if pic != nil {
		d.CoverURL = pic.URL
	}
	artist, err := s.store.Users().FindByUID(ctx, art.OwnerUID)
	switch {
	case err == nil:
		d.ArtistName = artist.Name
	case !errors.Is(err, repository.ErrNotFound):
		return nil, storeErr(err, "artist")
	}
	if s.likes != nil {
		if d.Liked, err = s.likes.IsLiked(ctx, id, viewerUID); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// DeliveryFee quotes the shipped-channel fee for an artwork.
func (s *artworkService) DeliveryFee(ctx context.Context, id uint64) (int64, error) {
	art, err := s.store.Artworks().FindByID(ctx, id)
	if err != nil {
		return 0, storeErr(err, "artwork")
	}
	return pricing.DeliveryCharge(art.Price, art.Size), nil
}
