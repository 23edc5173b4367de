package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Category struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"not null" json:"name"`
	Slug      string       `gorm:"not null;uniqueIndex" json:"slug"`
	IsActive  bool         `gorm:"not null" json:"is_active"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

func (Category) TableName() string { return "categories" }

// Offering is a bookable service inside a category. CreditCost is what a
// professional pays to accept a lead for it; zero defers to the marketplace default.
type Offering struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CategoryID snowflake.ID `gorm:"not null;index" json:"category_id"`
	Name       string       `gorm:"not null" json:"name"`
	Slug       string       `gorm:"not null;uniqueIndex" json:"slug"`
	CreditCost int64        `gorm:"not null" json:"credit_cost"`
	IsActive   bool         `gorm:"not null" json:"is_active"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

func (Offering) TableName() string { return "services" }
