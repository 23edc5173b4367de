package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateBundleRequest struct {
	Name     string
	Price    int64
	Currency string
	Credits  int64
}

type UpdateBundleRequest struct {
	ID       snowflake.ID
	Name     *string
	Price    *int64
	Credits  *int64
	IsActive *bool
}

type Service interface {
	Create(ctx context.Context, req CreateBundleRequest) (CreditBundle, error)
	Update(ctx context.Context, req UpdateBundleRequest) (CreditBundle, error)
	Get(ctx context.Context, id snowflake.ID) (CreditBundle, error)
	// GetActive returns ErrNotFound for bundles that are switched off.
	GetActive(ctx context.Context, id snowflake.ID) (CreditBundle, error)
	List(ctx context.Context, includeInactive bool) ([]CreditBundle, error)
}

var (
	ErrNotFound        = errors.New("bundle_not_found")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidCredits  = errors.New("invalid_credits")
	ErrInvalidCurrency = errors.New("invalid_currency")
)
