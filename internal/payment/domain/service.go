package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
)

type InitiateRequest struct {
	BundleID snowflake.ID
}

type InitiateResponse struct {
	Transaction Transaction `json:"transaction"`
	RedirectURL string      `json:"redirect_url"`
}

// WebhookRequest carries the callback exactly as received.
type WebhookRequest struct {
	Response  string
	Signature string
}

type ListRequest struct {
	pagination.Pagination
	Status string `form:"status"`
}

type ListResponse struct {
	pagination.PageInfo
	Transactions []Transaction `json:"transactions"`
}

type Receipt struct {
	FileName string
	Content  []byte
}

type Service interface {
	Initiate(ctx context.Context, req InitiateRequest) (InitiateResponse, error)
	HandleWebhook(ctx context.Context, req WebhookRequest) error
	Get(ctx context.Context, id snowflake.ID) (Transaction, error)
	ListMine(ctx context.Context, req ListRequest) (ListResponse, error)
	ListAll(ctx context.Context, req ListRequest) (ListResponse, error)
	Receipt(ctx context.Context, id snowflake.ID) (Receipt, error)
}

var (
	ErrNotFound           = errors.New("transaction_not_found")
	ErrBundleNotFound     = errors.New("bundle_not_found")
	ErrChecksumMismatch   = errors.New("checksum_mismatch")
	ErrInvalidPayload     = errors.New("invalid_payload")
	ErrNotSettled         = errors.New("transaction_not_settled")
	ErrGatewayUnavailable = errors.New("payment_gateway_unavailable")
	ErrGatewayRejected    = errors.New("payment_gateway_rejected")
	ErrInvalidStatus      = errors.New("invalid_status")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidPageToken   = errors.New("invalid_page_token")
)
