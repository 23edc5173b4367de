package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type OfferingFilter struct {
	CategoryID snowflake.ID
	ActiveOnly bool
}

type Repository interface {
	InsertCategory(ctx context.Context, db *gorm.DB, category *Category) error
	UpdateCategory(ctx context.Context, db *gorm.DB, category *Category) error
	FindCategory(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Category, error)
	ListCategories(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*Category, error)

	InsertOffering(ctx context.Context, db *gorm.DB, offering *Offering) error
	UpdateOffering(ctx context.Context, db *gorm.DB, offering *Offering) error
	FindOffering(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Offering, error)
	ListOfferings(ctx context.Context, db *gorm.DB, filter OfferingFilter) ([]*Offering, error)
}
