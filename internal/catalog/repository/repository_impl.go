package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertCategory(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO categories (id, name, slug, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		category.ID,
		category.Name,
		category.Slug,
		category.IsActive,
		category.CreatedAt,
		category.UpdatedAt,
	).Error
}

func (r *repo) UpdateCategory(ctx context.Context, db *gorm.DB, category *domain.Category) error {
	return db.WithContext(ctx).Exec(
		`UPDATE categories SET name = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		category.Name,
		category.IsActive,
		category.UpdatedAt,
		category.ID,
	).Error
}

func (r *repo) FindCategory(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Category, error) {
	var category domain.Category
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, slug, is_active, created_at, updated_at FROM categories WHERE id = ?`,
		id,
	).Scan(&category).Error
	if err != nil {
		return nil, err
	}
	if category.ID == 0 {
		return nil, nil
	}
	return &category, nil
}

func (r *repo) ListCategories(ctx context.Context, db *gorm.DB, activeOnly bool) ([]*domain.Category, error) {
	var categories []*domain.Category
	stmt := db.WithContext(ctx).Model(&domain.Category{})
	if activeOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("name asc").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *repo) InsertOffering(ctx context.Context, db *gorm.DB, offering *domain.Offering) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO services (id, category_id, name, slug, credit_cost, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		offering.ID,
		offering.CategoryID,
		offering.Name,
		offering.Slug,
		offering.CreditCost,
		offering.IsActive,
		offering.CreatedAt,
		offering.UpdatedAt,
	).Error
}

func (r *repo) UpdateOffering(ctx context.Context, db *gorm.DB, offering *domain.Offering) error {
	return db.WithContext(ctx).Exec(
		`UPDATE services SET name = ?, credit_cost = ?, is_active = ?, updated_at = ? WHERE id = ?`,
		offering.Name,
		offering.CreditCost,
		offering.IsActive,
		offering.UpdatedAt,
		offering.ID,
	).Error
}

func (r *repo) FindOffering(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Offering, error) {
	var offering domain.Offering
	err := db.WithContext(ctx).Raw(
		`SELECT id, category_id, name, slug, credit_cost, is_active, created_at, updated_at
		FROM services WHERE id = ?`,
		id,
	).Scan(&offering).Error
	if err != nil {
		return nil, err
	}
	if offering.ID == 0 {
		return nil, nil
	}
	return &offering, nil
}

func (r *repo) ListOfferings(ctx context.Context, db *gorm.DB, filter domain.OfferingFilter) ([]*domain.Offering, error) {
	var offerings []*domain.Offering
	stmt := db.WithContext(ctx).Model(&domain.Offering{})
	if filter.CategoryID != 0 {
		stmt = stmt.Where("category_id = ?", filter.CategoryID)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("is_active = ?", true)
	}
	if err := stmt.Order("name asc").Find(&offerings).Error; err != nil {
		return nil, err
	}
	return offerings, nil
}
