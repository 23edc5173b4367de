package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListEntriesRequest struct {
	pagination.Pagination
}

type ListEntriesResponse struct {
	pagination.PageInfo
	Balance int64         `json:"balance"`
	Entries []CreditEntry `json:"entries"`
}

// Service owns every mutation of professional credits. Debit and Credit must
// run on the caller's transaction so the balance moves together with the
// state change that justifies it.
type Service interface {
	Debit(ctx context.Context, tx *gorm.DB, userID snowflake.ID, amount int64, ref Reference) (CreditEntry, error)
	Credit(ctx context.Context, tx *gorm.DB, userID snowflake.ID, amount int64, ref Reference) (CreditEntry, error)
	Balance(ctx context.Context, userID snowflake.ID) (int64, error)
	ListMine(ctx context.Context, req ListEntriesRequest) (ListEntriesResponse, error)
}

var (
	ErrInsufficientCredits = errors.New("insufficient_credits")
	ErrProfileNotFound     = errors.New("professional_profile_not_found")
	ErrInvalidAmount       = errors.New("invalid_amount")
	ErrInvalidReference    = errors.New("invalid_reference")
	ErrDuplicateEntry      = errors.New("duplicate_credit_entry")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
)
