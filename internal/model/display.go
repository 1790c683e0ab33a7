package model

import "time"

type Display struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	Title        string    `gorm:"size:120;not null"`
	Description  string    `gorm:"type:text"`
	ApplyStartAt time.Time `gorm:"column:apply_start_at;not null"`
	ApplyEndAt   time.Time `gorm:"column:apply_end_at;not null"`
	StartAt      time.Time `gorm:"column:start_at"`
	EndAt        time.Time `gorm:"column:end_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (Display) TableName() string {
	return "displays"
}

// AcceptsApplications reports whether t falls inside the application window.
// Both ends are inclusive.
func (d Display) AcceptsApplications(t time.Time) bool {
	return !t.Before(d.ApplyStartAt) && !t.After(d.ApplyEndAt)
}

type DisplayContent struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	DisplayID uint64    `gorm:"column:display_id;not null;index:idx_display_contents_user_display,priority:2"`
	UserUID   string    `gorm:"column:user_uid;size:128;not null;index:idx_display_contents_user_display,priority:1"`
	ArtworkID uint64    `gorm:"column:artwork_id;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (DisplayContent) TableName() string {
	return "display_contents"
}
