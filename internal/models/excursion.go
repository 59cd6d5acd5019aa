package models

import (
	"time"

	"gorm.io/gorm"
)

type Excursion struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	Name            string         `gorm:"size:255;not null" json:"name"`
	Description     string         `gorm:"type:text" json:"description"`
	PriceCents      int64          `gorm:"not null" json:"price_cents"` // per participant, minor units
	Currency        string         `gorm:"size:3;default:'EUR'" json:"currency"`
	DurationMinutes int            `json:"duration_minutes"`
	MaxParticipants int            `gorm:"default:12" json:"max_participants"`
	Active          bool           `gorm:"default:true;index" json:"active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Excursion) TableName() string {
	return "excursions"
}
