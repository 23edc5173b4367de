package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusAccepted Status = "ACCEPTED"
	StatusRejected Status = "REJECTED"
	StatusMissed   Status = "MISSED"
)

func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusPending, StatusAccepted, StatusRejected, StatusMissed:
		return Status(value), true
	default:
		return "", false
	}
}

// Responded reports whether the professional already answered. Responded
// assignments never change again.
func (s Status) Responded() bool {
	return s == StatusAccepted || s == StatusRejected
}

type Action string

const (
	ActionAccept Action = "ACCEPT"
	ActionReject Action = "REJECT"
)

func ParseAction(value string) (Action, bool) {
	switch Action(value) {
	case ActionAccept, ActionReject:
		return Action(value), true
	default:
		return "", false
	}
}

// Assignment offers one lead to one professional. UpdatedAt marks the last
// time it was (re)assigned while pending and drives expiry.
type Assignment struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	LeadID         snowflake.ID `gorm:"not null;uniqueIndex:ux_assignments_lead_professional,priority:1" json:"lead_id"`
	ProfessionalID snowflake.ID `gorm:"not null;uniqueIndex:ux_assignments_lead_professional,priority:2" json:"professional_id"`
	Status         Status       `gorm:"type:text;not null" json:"status"`
	RespondedAt    *time.Time   `json:"responded_at,omitempty"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null" json:"updated_at"`
}

func (Assignment) TableName() string { return "assignments" }
