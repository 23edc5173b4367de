package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// EntryType classifies a movement on a professional's credit balance.
type EntryType string

const (
	EntryTypeLeadUnlock EntryType = "LEAD_UNLOCK"
	EntryTypePurchase   EntryType = "PURCHASE"
)

const (
	ReferenceAssignment  = "assignment"
	ReferenceTransaction = "transaction"
)

// Reference ties an entry to the row that caused it. Each reference can
// produce at most one entry per type.
type Reference struct {
	Type string
	ID   snowflake.ID
}

// CreditEntry is an append-only history row. Amount is signed: debits are
// negative. The balance itself lives on professional_profiles.credits.
type CreditEntry struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID        snowflake.ID `gorm:"not null;index" json:"user_id"`
	EntryType     EntryType    `gorm:"type:text;not null" json:"entry_type"`
	Amount        int64        `gorm:"not null" json:"amount"`
	BalanceAfter  int64        `gorm:"not null" json:"balance_after"`
	ReferenceType string       `gorm:"type:text;not null" json:"reference_type"`
	ReferenceID   snowflake.ID `gorm:"not null" json:"reference_id"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
}

func (CreditEntry) TableName() string { return "credit_entries" }
