package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateRequest struct {
	UserID  snowflake.ID
	Type    Type
	Message string
	Data    map[string]any
}

type ListRequest struct {
	pagination.Pagination
	UnreadOnly bool `form:"unread"`
}

type ListResponse struct {
	pagination.PageInfo
	Notifications []Notification `json:"notifications"`
}

type Service interface {
	// Create writes on the given handle so callers can notify inside their
	// own transaction.
	Create(ctx context.Context, db *gorm.DB, req CreateRequest) (Notification, error)
	ListMine(ctx context.Context, req ListRequest) (ListResponse, error)
	MarkRead(ctx context.Context, id snowflake.ID) (Notification, error)
}

var (
	ErrNotFound         = errors.New("notification_not_found")
	ErrInvalidRecipient = errors.New("invalid_recipient")
	ErrInvalidMessage   = errors.New("invalid_message")
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
