package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusOpen          Status = "OPEN"
	StatusAssigned      Status = "ASSIGNED"
	StatusAccepted      Status = "ACCEPTED"
	StatusCompleted     Status = "COMPLETED"
	StatusIssueReported Status = "ISSUE_REPORTED"
)

func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusOpen, StatusAssigned, StatusAccepted, StatusCompleted, StatusIssueReported:
		return Status(value), true
	default:
		return "", false
	}
}

var transitions = map[Status][]Status{
	StatusOpen:      {StatusAssigned},
	StatusAssigned:  {StatusAccepted, StatusIssueReported},
	StatusAccepted:  {StatusCompleted, StatusIssueReported},
	StatusCompleted: {StatusIssueReported},
}

// CanTransition reports whether a lead may move from one status to another.
// Leads only move forward; reporting an issue is the single side exit.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a lead no longer accepts assignments.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusIssueReported
}

// Lead is a customer's service request. Contact fields are withheld from
// professionals until they accept an assignment for it.
type Lead struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID   snowflake.ID `gorm:"not null;index" json:"customer_id"`
	ServiceID    snowflake.ID `gorm:"not null;index" json:"service_id"`
	Title        string       `gorm:"not null" json:"title"`
	Description  string       `gorm:"not null" json:"description"`
	Location     string       `gorm:"not null" json:"location"`
	ContactName  string       `gorm:"not null" json:"contact_name,omitempty"`
	ContactEmail string       `gorm:"not null" json:"contact_email,omitempty"`
	ContactPhone string       `gorm:"not null" json:"contact_phone,omitempty"`
	Status       Status       `gorm:"type:text;not null" json:"status"`
	CreditCost   int64        `gorm:"not null" json:"credit_cost"`
	IssueNote    string       `gorm:"not null" json:"issue_note,omitempty"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`

	ContactHidden bool `gorm:"-" json:"contact_hidden,omitempty"`
}

func (Lead) TableName() string { return "leads" }

// Contact is released to a professional on a successful accept.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (l Lead) Contact() Contact {
	return Contact{Name: l.ContactName, Email: l.ContactEmail, Phone: l.ContactPhone}
}

// WithoutContact returns a copy with the contact fields cleared.
func (l Lead) WithoutContact() Lead {
	l.ContactName = ""
	l.ContactEmail = ""
	l.ContactPhone = ""
	l.ContactHidden = true
	return l
}
