package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/bundle/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bundle *domain.CreditBundle) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO credit_bundles (id, name, price, currency, credits, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		bundle.ID,
		bundle.Name,
		bundle.Price,
		bundle.Currency,
		bundle.Credits,
		bundle.IsActive,
		bundle.CreatedAt,
		bundle.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, bundle *domain.CreditBundle) error {
	return db.WithContext(ctx).Exec(
		`UPDATE credit_bundles SET name = ?, price = ?, credits = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		bundle.Name,
		bundle.Price,
		bundle.Credits,
		bundle.IsActive,
		bundle.UpdatedAt,
		bundle.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.CreditBundle, error) {
	var bundle domain.CreditBundle
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, price, currency, credits, is_active, created_at, updated_at
		FROM credit_bundles WHERE id = ?`,
		id,
	).Scan(&bundle).Error
	if err != nil {
		return nil, err
	}
	if bundle.ID == 0 {
		return nil, nil
	}
	return &bundle, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*domain.CreditBundle, error) {
	var bundles []*domain.CreditBundle
	stmt := db.WithContext(ctx).Model(&domain.CreditBundle{})
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("credits asc").Order("id asc").Find(&bundles).Error; err != nil {
		return nil, err
	}
	return bundles, nil
}
