package service

import (
	"context"
	"errors"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository"
)

type LikeResult struct {
	Liked bool
	Count int64
}

type LikeService interface {
	Toggle(ctx context.Context, artworkID uint64, uid string) (*LikeResult, error)
	IsLiked(ctx context.Context, artworkID uint64, uid string) (bool, error)
	List(ctx context.Context, artworkID uint64) ([]model.ArtworkLike, int64, error)
}

type likeService struct {
	store repository.Store
}

func NewLikeService(store repository.Store) LikeService {
	return &likeService{store: store}
}

// Toggle flips the caller's like. The relation row and the counter change in
// one transaction, and the counter moves by an increment in the store rather
// than a read-modify-write.
func (s *likeService) Toggle(ctx context.Context, artworkID uint64, uid string) (*LikeResult, error) {
	if uid == "" {
		return nil, ErrUnauthorized
	}
	var res LikeResult
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if _, err := tx.Artworks().FindByID(ctx, artworkID); err != nil {
			return storeErr(err, "artwork")
		}
		_, err := tx.Likes().Find(ctx, uid, artworkID)
		switch {
		case err == nil:
			if err := tx.Likes().Delete(ctx, uid, artworkID); err != nil {
				return storeErr(err, "delete like")
			}
			if err := tx.Artworks().AddLikeCount(ctx, artworkID, -1); err != nil {
				return storeErr(err, "decrement like count")
			}
		case errors.Is(err, repository.ErrNotFound):
			// A concurrent toggle by the same user may insert first; the unique
			// index then rejects ours and that toggle already counted the like.
			err := tx.Likes().Create(ctx, &model.ArtworkLike{UserUID: uid, ArtworkID: artworkID})
			switch {
			case err == nil:
				if err := tx.Artworks().AddLikeCount(ctx, artworkID, 1); err != nil {
					return storeErr(err, "increment like count")
				}
			case !errors.Is(err, repository.ErrDuplicate):
				return storeErr(err, "create like")
			}
			res.Liked = true
		default:
			return storeErr(err, "find like")
		}
		art, err := tx.Artworks().FindByID(ctx, artworkID)
		if err != nil {
			return storeErr(err, "artwork")
		}
		res.Count = art.LikeCount
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *likeService) IsLiked(ctx context.Context, artworkID uint64, uid string) (bool, error) {
	if uid == "" {
		return false, nil
	}
	_, err := s.store.Likes().Find(ctx, uid, artworkID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	}
	return false, storeErr(err, "find like")
}

func (s *likeService) List(ctx context.Context, artworkID uint64) ([]model.ArtworkLike, int64, error) {
	art, err := s.store.Artworks().FindByID(ctx, artworkID)
	if err != nil {
		return nil, 0, storeErr(err, "artwork")
	}
	list, err := s.store.Likes().ListByArtwork(ctx, artworkID)
	if err != nil {
		return nil, 0, storeErr(err, "list likes")
	}
	return list, art.LikeCount, nil
}
