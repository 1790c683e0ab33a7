package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Availability mirrors the active purchase of an artwork.
type Availability int

const (
	AvailabilityAvailable       Availability = 0
	AvailabilityReservedDirect  Availability = 1
	AvailabilityReservedShipped Availability = 2
	AvailabilitySold            Availability = 3
)

type Artwork struct {
	ID            uint64          `gorm:"primaryKey;autoIncrement"`
	OwnerUID      string          `gorm:"column:owner_uid;size:128;index;not null"`
	Name          string          `gorm:"size:120;not null"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(12,0);not null"`
	Size          int             `gorm:"not null"`
	Form          string          `gorm:"size:32"`
	Category      string          `gorm:"size:32"`
	PurchaseState Availability    `gorm:"column:purchase_state;not null;default:0"`
	LikeCount     int64           `gorm:"column:like_count;not null;default:0"`
	CreatedAt     time.Time       `gorm:"autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime"`
}

func (Artwork) TableName() string {
	return "artworks"
}

type ArtworkPicture struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	ArtworkID uint64    `gorm:"column:artwork_id;not null;index:idx_artwork_pictures_artwork_id"`
	URL       string    `gorm:"column:url;size:512;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ArtworkPicture) TableName() string {
	return "artwork_pictures"
}

type ArtworkLike struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	UserUID   string    `gorm:"column:user_uid;size:128;not null;uniqueIndex:uk_artwork_likes_user_artwork"`
	ArtworkID uint64    `gorm:"column:artwork_id;not null;uniqueIndex:uk_artwork_likes_user_artwork;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (ArtworkLike) TableName() string {
	return "artwork_likes"
}
