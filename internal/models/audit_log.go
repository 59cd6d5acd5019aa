package models

import "time"

// AuditLog is append-only; rows are never updated or deleted.
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EventType   string    `gorm:"size:100;not null;index" json:"event_type"`
	ActorID     *uint     `gorm:"index" json:"actor_id"`
	ActorEmail  string    `gorm:"size:255" json:"actor_email"`
	OrderNumber string    `gorm:"size:12;index" json:"order_number"`
	AmountCents int64     `json:"amount_cents"`
	Success     bool      `gorm:"index" json:"success"`
	Reason      string    `gorm:"size:255" json:"reason"`
	Metadata    string    `gorm:"type:text" json:"metadata"` // JSON
	RequestID   string    `gorm:"size:64;index" json:"request_id"`
	IP          string    `gorm:"size:45" json:"ip"`
	UserAgent   string    `gorm:"size:512" json:"user_agent"`
	CreatedAt   time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
