package model

import "time"

// User is a profile keyed by the Firebase UID. The escrow account is an
// ordinary user whose UID is configured.
type User struct {
	UID       string    `gorm:"column:uid;primaryKey;size:128"`
	Name      string    `gorm:"size:64;not null"`
	Phone     string    `gorm:"size:32"`
	Address   string    `gorm:"size:255"`
	Bank      string    `gorm:"size:64"`
	Account   string    `gorm:"size:64"`
	School    string    `gorm:"size:64"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}
