package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	UserID  snowflake.ID
	AfterID int64
	Limit   int
}

type Repository interface {
	// Decrement subtracts amount only when the balance covers it and reports
	// the number of rows changed.
	Decrement(ctx context.Context, db *gorm.DB, userID snowflake.ID, amount int64, now time.Time) (int64, error)
	Increment(ctx context.Context, db *gorm.DB, userID snowflake.ID, amount int64, now time.Time) (int64, error)
	// Balance returns the current credits and whether the profile exists.
	Balance(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, bool, error)
	InsertEntry(ctx context.Context, db *gorm.DB, entry *CreditEntry) error
	ListEntries(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*CreditEntry, error)
}
