package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending Status = "PENDING"
	StatusSuccess Status = "SUCCESS"
	StatusFailed  Status = "FAILED"
)

func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusPending, StatusSuccess, StatusFailed:
		return Status(value), true
	default:
		return "", false
	}
}

// Transaction is a credit purchase. Amount and Credits are copied from the
// bundle when the purchase starts.
type Transaction struct {
	ID                    snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID                snowflake.ID `gorm:"not null;index" json:"user_id"`
	BundleID              snowflake.ID `gorm:"not null" json:"bundle_id"`
	MerchantTransactionID string       `gorm:"type:text;not null;uniqueIndex" json:"merchant_transaction_id"`
	Amount                int64        `gorm:"not null" json:"amount"`
	Currency              string       `gorm:"type:text;not null" json:"currency"`
	Credits               int64        `gorm:"not null" json:"credits"`
	Status                Status       `gorm:"type:text;not null" json:"status"`
	GatewayTransactionID  string       `gorm:"type:text;not null" json:"gateway_transaction_id,omitempty"`
	GatewayCode           string       `gorm:"type:text;not null" json:"gateway_code,omitempty"`
	SettledAt             *time.Time   `json:"settled_at,omitempty"`
	CreatedAt             time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt             time.Time    `gorm:"not null" json:"updated_at"`
}

func (Transaction) TableName() string { return "transactions" }

// CodePaymentSuccess is the only callback code that releases credits.
const CodePaymentSuccess = "PAYMENT_SUCCESS"

// CallbackPayload is the decoded "response" field of a gateway callback.
type CallbackPayload struct {
	Success bool         `json:"success"`
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Data    CallbackData `json:"data"`
}

type CallbackData struct {
	MerchantID            string `json:"merchantId"`
	MerchantTransactionID string `json:"merchantTransactionId"`
	TransactionID         string `json:"transactionId"`
	Amount                int64  `json:"amount"`
	State                 string `json:"state"`
	ResponseCode          string `json:"responseCode"`
}
