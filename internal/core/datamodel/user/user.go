package user

import "github.com/frahmantamala/event-scheduler/internal/core/datamodel"

type User struct {
	datamodel.Base
	Email        string `gorm:"column:email;size:255;uniqueIndex;not null"`
	Name         string `gorm:"column:name;size:200;not null"`
	PasswordHash string `gorm:"column:password_hash;not null"`
	IsActive     bool   `gorm:"column:is_active;not null"`
}

func (User) TableName() string {
	return "users"
}
