package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shinyyama/artoo-backend/internal/config"
	"github.com/shinyyama/artoo-backend/internal/db"
	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository"
	"github.com/shopspring/decimal"
)

type seedArtist struct {
	UID    string
	Name   string
	School string
	Works  []seedArtwork
}

type seedArtwork struct {
	Name     string
	Price    int64
	Size     int
	Form     string
	Category string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Artwork{}).Count(&cnt).Error; err != nil {
		return fmt.Errorf("count artworks: %w", err)
	}
	if cnt > 0 && !strings.EqualFold(os.Getenv("FORCE_SEED"), "true") {
		log.Printf("artworks already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	store := repository.NewStore(gdb)
	var seeded int
	err = store.Transaction(ctx, func(tx repository.Store) error {
		escrow := &model.User{
			UID:     cfg.EscrowUID,
			Name:    "Artoo",
			Phone:   "02-000-0000",
			Address: "Seoul, Mapo-gu",
			Bank:    "Shinhan",
			Account: "110-000-000000",
		}
		if err := tx.Users().Upsert(ctx, escrow); err != nil {
			return fmt.Errorf("upsert escrow: %w", err)
		}

		var firstArtwork *model.Artwork
		for _, a := range buildSeedArtists() {
			u := &model.User{UID: a.UID, Name: a.Name, School: a.School}
			if err := tx.Users().Upsert(ctx, u); err != nil {
				return fmt.Errorf("upsert artist %s: %w", a.UID, err)
			}
			for i, w := range a.Works {
				art := &model.Artwork{
					OwnerUID:      a.UID,
					Name:          w.Name,
					Description:   fmt.Sprintf("%s by %s.", w.Name, a.Name),
					Price:         decimal.NewFromInt(w.Price),
					Size:          w.Size,
					Form:          w.Form,
					Category:      w.Category,
					PurchaseState: model.AvailabilityAvailable,
				}
				if err := tx.Artworks().Create(ctx, art); err != nil {
					return fmt.Errorf("insert artwork %q: %w", w.Name, err)
				}
				pic := &model.ArtworkPicture{ArtworkID: art.ID, URL: picsumURL(a.UID, i+1)}
				if err := tx.Artworks().AddPicture(ctx, pic); err != nil {
					return fmt.Errorf("insert picture %q: %w", w.Name, err)
				}
				if firstArtwork == nil {
					firstArtwork = art
				}
				seeded++
			}
		}

		now := time.Now()
		d := &model.Display{
			Title:        "Spring Graduate Show",
			Description:  "Open call for student works.",
			ApplyStartAt: now.AddDate(0, 0, -7),
			ApplyEndAt:   now.AddDate(0, 0, 14),
			StartAt:      now.AddDate(0, 1, 0),
			EndAt:        now.AddDate(0, 1, 14),
		}
		if err := tx.Displays().Create(ctx, d); err != nil {
			return fmt.Errorf("insert display: %w", err)
		}
		if firstArtwork != nil {
			if err := tx.Displays().CreateContent(ctx, &model.DisplayContent{
				DisplayID: d.ID,
				UserUID:   firstArtwork.OwnerUID,
				ArtworkID: firstArtwork.ID,
			}); err != nil {
				return fmt.Errorf("insert display content: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Printf("seeded %d artworks", seeded)
	return nil
}

func buildSeedArtists() []seedArtist {
	return []seedArtist{
		{UID: "seed-artist-1", Name: "Kim Haneul", School: "Hongik University", Works: []seedArtwork{
			{Name: "Morning Han River", Price: 120000, Size: 2000, Form: "painting", Category: "oil"},
			{Name: "Quiet Alley", Price: 180000, Size: 6000, Form: "painting", Category: "acrylic"},
		}},
		{UID: "seed-artist-2", Name: "Park Seoyeon", School: "Seoul National University", Works: []seedArtwork{
			{Name: "Paper Birds", Price: 45000, Size: 900, Form: "drawing", Category: "ink"},
			{Name: "Tide Study", Price: 95000, Size: 8000, Form: "painting", Category: "watercolor"},
			{Name: "Vessel", Price: 240000, Size: 12000, Form: "sculpture", Category: "ceramic"},
		}},
		{UID: "seed-artist-3", Name: "Lee Jiwoo", School: "Ewha Womans University", Works: []seedArtwork{
			{Name: "Night Market", Price: 70000, Size: 3500, Form: "photograph", Category: "print"},
		}},
	}
}

func picsumURL(uid string, k int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/600", uid, k)
}
