package models

import (
	"time"

	"gorm.io/gorm"
)

type Reservation struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"not null;index" json:"user_id"`
	ExcursionID      uint           `gorm:"not null;index" json:"excursion_id"`
	Date             time.Time      `gorm:"not null" json:"date"`
	Participants     int            `gorm:"not null;default:1" json:"participants"`
	Status           string         `gorm:"size:20;not null;default:'pending';index" json:"status"` // pending, preauthorized, confirmed, rejected, cancelled
	PaymentStatus    string         `gorm:"size:20;not null;default:'pending';index" json:"payment_status"` // pending, preauthorized, paid, rejected
	PaymentID        string         `gorm:"size:12;index" json:"payment_id"` // processor order number
	PaymentAuthCode  string         `gorm:"size:20" json:"payment_auth_code"`
	TotalAmountCents int64          `gorm:"not null" json:"total_amount_cents"`
	Currency         string         `gorm:"size:3;default:'EUR'" json:"currency"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	User      User      `gorm:"foreignKey:UserID" json:"-"`
	Excursion Excursion `gorm:"foreignKey:ExcursionID" json:"-"`
}

func (Reservation) TableName() string {
	return "reservations"
}
