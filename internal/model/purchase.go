package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Purchase struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement"`
	ArtworkID        uint64          `gorm:"column:artwork_id;index;not null"`
	BuyerUID         string          `gorm:"column:buyer_uid;size:128;index;not null"`
	SellerUID        string          `gorm:"column:seller_uid;size:128;index;not null"`
	State            int             `gorm:"column:state;index;not null"`
	Price            decimal.Decimal `gorm:"column:price;type:decimal(12,0);not null"`
	DeliveryFee      int64           `gorm:"column:delivery_fee;not null"`
	Comment          string          `gorm:"column:comment;type:text"`
	RecipientName    string          `gorm:"column:recipient_name;size:64"`
	RecipientAddress string          `gorm:"column:recipient_address;size:255"`
	CreatedAt        time.Time       `gorm:"column:created_at;not null"`
	UpdatedAt        time.Time       `gorm:"autoUpdateTime"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// AmountDue is what the buyer transfers to the escrow account.
func (p Purchase) AmountDue() decimal.Decimal {
	return p.Price.Add(decimal.NewFromInt(p.DeliveryFee))
}
