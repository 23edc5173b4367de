package domain

import "context"

type PayRequest struct {
	MerchantTransactionID string
	MerchantUserID        string
	Amount                int64
}

type PayResponse struct {
	RedirectURL string
	Code        string
}

// Gateway starts hosted checkout sessions and authenticates callbacks.
type Gateway interface {
	Pay(ctx context.Context, req PayRequest) (PayResponse, error)
	VerifyCallback(response, signature string) bool
}
