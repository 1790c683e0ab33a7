package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
	"github.com/caarlos0/env/v9"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shinyyama/artoo-backend/internal/config"
	"github.com/shinyyama/artoo-backend/internal/db"
	"github.com/shinyyama/artoo-backend/internal/model"
	"github.com/shinyyama/artoo-backend/internal/repository"
	"gorm.io/gorm"
)

type options struct {
	TimeoutSeconds int  `env:"TIMEOUT_SECONDS" envDefault:"300"`
	ForceSeed      bool `env:"FORCE_SEED" envDefault:"false"`
}

func main() {
	_ = godotenv.Load()
	var opts options
	if err := env.Parse(&opts); err != nil {
		log.Fatalf("failed to parse env: %v", err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.StorageBucket == "" {
		log.Fatalf("STORAGE_BUCKET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(opts.TimeoutSeconds)*time.Second)
	defer cancel()

	gdb, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("failed to connect db: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		log.Fatalf("failed to get sql db: %v", err)
	}
	defer sqlDB.Close()

	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		log.Fatalf("failed to init storage: %v", err)
	}
	defer storageClient.Close()

	targets, err := artworksWithoutPictures(ctx, gdb, opts.ForceSeed)
	if err != nil {
		log.Fatalf("list artworks: %v", err)
	}
	log.Printf("target artworks=%d (force=%v)", len(targets), opts.ForceSeed)

	artworks := repository.NewStore(gdb).Artworks()
	for _, a := range targets {
		data, err := fetchPlaceholder(ctx, fmt.Sprintf("artwork-%d", a.ID))
		if err != nil {
			log.Printf("[artwork %d] placeholder failed: %v", a.ID, err)
			continue
		}
		path := fmt.Sprintf("artworks/%d/%s.jpg", a.ID, uuid.NewString())
		publicURL, err := uploadWithToken(ctx, storageClient, cfg.StorageBucket, path, data)
		if err != nil {
			log.Printf("[artwork %d] upload failed: %v", a.ID, err)
			continue
		}
		if err := artworks.AddPicture(ctx, &model.ArtworkPicture{ArtworkID: a.ID, URL: publicURL}); err != nil {
			log.Printf("[artwork %d] db insert failed: %v", a.ID, err)
			continue
		}
		log.Printf("[artwork %d] done url=%s", a.ID, publicURL)
	}
	log.Println("seed-pictures completed")
}

func artworksWithoutPictures(ctx context.Context, gdb *gorm.DB, all bool) ([]model.Artwork, error) {
	var list []model.Artwork
	q := gdb.WithContext(ctx).Model(&model.Artwork{})
	if !all {
		q = q.Where("NOT EXISTS (SELECT 1 FROM artwork_pictures p WHERE p.artwork_id = artworks.id)")
	}
	if err := q.Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func fetchPlaceholder(ctx context.Context, seed string) ([]byte, error) {
	u := fmt.Sprintf("https://picsum.photos/seed/%s/800/600", url.PathEscape(seed))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("placeholder status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// uploadWithToken stores the object with a Firebase download token so the
// returned URL works without signed requests.
func uploadWithToken(ctx context.Context, client *storage.Client, bucketName, objectPath string, data []byte) (string, error) {
	token := uuid.NewString()
	w := client.Bucket(bucketName).Object(objectPath).NewWriter(ctx)
	w.ContentType = "image/jpeg"
	w.Metadata = map[string]string{
		"firebaseStorageDownloadTokens": token,
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("https://firebasestorage.googleapis.com/v0/b/%s/o/%s?alt=media&token=%s",
		bucketName, url.PathEscape(objectPath), token), nil
}
