package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bundle *CreditBundle) error
	Update(ctx context.Context, db *gorm.DB, bundle *CreditBundle) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*CreditBundle, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*CreditBundle, error)
}
