package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Type string

const (
	TypeLeadAssigned     Type = "LEAD_ASSIGNED"
	TypeCreditsPurchased Type = "CREDITS_PURCHASED"
	TypePaymentFailed    Type = "PAYMENT_FAILED"
)

type Notification struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID      `gorm:"not null;index" json:"user_id"`
	Type      Type              `gorm:"type:text;not null" json:"type"`
	Message   string            `gorm:"not null" json:"message"`
	Data      datatypes.JSONMap `gorm:"type:jsonb" json:"data"`
	Read      bool              `gorm:"not null" json:"read"`
	ReadAt    *time.Time        `json:"read_at,omitempty"`
	CreatedAt time.Time         `gorm:"not null" json:"created_at"`
}

func (Notification) TableName() string { return "notifications" }
