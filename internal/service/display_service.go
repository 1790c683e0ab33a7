package service

import (
	"context"
	"errors"
	"time"

	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository"
)

// DisplayStateApplied marks an application submitted to a display whose
// application window is still open.
const DisplayStateApplied = 1

type DisplayApplication struct {
	ContentID   uint64
	Display     model.Display
	ArtworkID   uint64
	ArtworkName string
	UserUID     string
	UserName    string
	State       int
	AppliedAt   time.Time
}

type DisplayService interface {
	CurrentApplications(ctx context.Context, uid string) ([]DisplayApplication, error)
	Apply(ctx context.Context, displayID, artworkID uint64, uid string) (*model.DisplayContent, error)
}

type displayService struct {
	store repository.Store
	now   func() time.Time
}

func NewDisplayService(store repository.Store, now func() time.Time) DisplayService {
	if now == nil {
		now = time.Now
	}
	return &displayService{store: store, now: now}
}

// CurrentApplications lists the caller's applications to displays that are
// accepting applications right now.
func (s *displayService) CurrentApplications(ctx context.Context, uid string) ([]DisplayApplication, error) {
	out := []DisplayApplication{}
	if uid == "" {
		return out, nil
	}
	now := s.now()
	displays, err := s.store.Displays().ListAcceptingAt(ctx, now)
	if err != nil {
		return nil, storeErr(err, "list displays")
	}
	var user *model.User
	for _, d := range displays {
		if !d.AcceptsApplications(now) {
			continue
		}
		dc, err := s.store.Displays().FindContent(ctx, uid, d.ID)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, storeErr(err, "display content")
		}
		art, err := s.store.Artworks().FindByID(ctx, dc.ArtworkID)
		if err != nil {
			return nil, storeErr(err, "artwork")
		}
		if user == nil {
			if user, err = s.store.Users().FindByUID(ctx, uid); errors.Is(err, repository.ErrNotFound) {
				user = &model.User{UID: uid}
			} else if err != nil {
				return nil, storeErr(err, "user")
			}
		}
		out = append(out, DisplayApplication{
			ContentID:   dc.ID,
			Display:     d,
			ArtworkID:   art.ID,
			ArtworkName: art.Name,
			UserUID:     uid,
			UserName:    user.Name,
			State:       DisplayStateApplied,
			AppliedAt:   dc.CreatedAt,
		})
	}
	return out, nil
}

// Apply submits one of the caller's artworks to a display. A user applies at
// most once per display.
func (s *displayService) Apply(ctx context.Context, displayID, artworkID uint64, uid string) (*model.DisplayContent, error) {
	if uid == "" {
		return nil, ErrUnauthorized
	}
	now := s.now()
	var out *model.DisplayContent
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		open, err := tx.Displays().ListAcceptingAt(ctx, now)
		if err != nil {
			return storeErr(err, "list displays")
		}
		accepting := false
		for _, d := range open {
			if d.ID == displayID && d.AcceptsApplications(now) {
				accepting = true
				break
			}
		}
		if !accepting {
			return invalidStatef("display %d is not accepting applications", displayID)
		}
		art, err := tx.Artworks().FindByID(ctx, artworkID)
		if err != nil {
			return storeErr(err, "artwork")
		}
		if art.OwnerUID != uid {
			return ErrUnauthorized
		}
		if _, err := tx.Displays().FindContent(ctx, uid, displayID); err == nil {
			return invalidStatef("already applied to display %d", displayID)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return storeErr(err, "display content")
		}
		dc := &model.DisplayContent{DisplayID: displayID, UserUID: uid, ArtworkID: artworkID}
		if err := tx.Displays().CreateContent(ctx, dc); err != nil {
			return storeErr(err, "create display content")
		}
		out = dc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
