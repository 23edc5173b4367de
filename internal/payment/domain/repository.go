package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	UserID  snowflake.ID
	Status  Status
	AfterID int64
	Limit   int
}

type Settlement struct {
	Status               Status
	GatewayTransactionID string
	GatewayCode          string
	SettledAt            time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, txn *Transaction) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
	FindByMerchantTransactionID(ctx context.Context, db *gorm.DB, merchantTransactionID string) (*Transaction, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Transaction, error)
	// Settle moves a PENDING transaction to its final status and reports the
	// number of rows changed.
	Settle(ctx context.Context, db *gorm.DB, id snowflake.ID, settlement Settlement) (int64, error)
}
