package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CreditBundle is a purchasable pack of credits. Price is in minor units.
type CreditBundle struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Price     int64        `gorm:"not null" json:"price"`
	Currency  string       `gorm:"not null" json:"currency"`
	Credits   int64        `gorm:"not null" json:"credits"`
	IsActive  bool         `gorm:"not null" json:"is_active"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (CreditBundle) TableName() string { return "credit_bundles" }
