package datamodel

import "time"

// Base carries the identity and timestamps shared by every persisted entity.
type Base struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (b Base) Identity() int64 {
	return b.ID
}
