package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateCategoryRequest struct {
	Name string
	Slug string
}

type UpdateCategoryRequest struct {
	ID       snowflake.ID
	Name     *string
	IsActive *bool
}

type CreateOfferingRequest struct {
	CategoryID snowflake.ID
	Name       string
	Slug       string
	CreditCost int64
}

type UpdateOfferingRequest struct {
	ID         snowflake.ID
	Name       *string
	CreditCost *int64
	IsActive   *bool
}

type ListOfferingsRequest struct {
	CategoryID      snowflake.ID
	IncludeInactive bool
}

type Service interface {
	CreateCategory(ctx context.Context, req CreateCategoryRequest) (Category, error)
	UpdateCategory(ctx context.Context, req UpdateCategoryRequest) (Category, error)
	ListCategories(ctx context.Context, includeInactive bool) ([]Category, error)

	CreateOffering(ctx context.Context, req CreateOfferingRequest) (Offering, error)
	UpdateOffering(ctx context.Context, req UpdateOfferingRequest) (Offering, error)
	GetOffering(ctx context.Context, id snowflake.ID) (Offering, error)
	ListOfferings(ctx context.Context, req ListOfferingsRequest) ([]Offering, error)
}

var (
	ErrCategoryNotFound  = errors.New("category_not_found")
	ErrOfferingNotFound  = errors.New("service_not_found")
	ErrSlugTaken         = errors.New("slug_taken")
	ErrInvalidName       = errors.New("invalid_name")
	ErrInvalidSlug       = errors.New("invalid_slug")
	ErrInvalidCreditCost = errors.New("invalid_credit_cost")
)
