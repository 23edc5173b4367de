package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateLeadRequest struct {
	ServiceID    snowflake.ID
	Title        string
	Description  string
	Location     string
	ContactName  string
	ContactEmail string
	ContactPhone string
}

type ListLeadsRequest struct {
	pagination.Pagination
	Status string `form:"status"`
}

type ListLeadsResponse struct {
	pagination.PageInfo
	Leads []Lead `json:"leads"`
}

type ReportIssueRequest struct {
	ID   snowflake.ID
	Note string
}

type Service interface {
	Create(ctx context.Context, req CreateLeadRequest) (Lead, error)
	Get(ctx context.Context, id snowflake.ID) (Lead, error)
	ListMine(ctx context.Context, req ListLeadsRequest) (ListLeadsResponse, error)
	ListAll(ctx context.Context, req ListLeadsRequest) (ListLeadsResponse, error)
	Complete(ctx context.Context, id snowflake.ID) (Lead, error)
	ReportIssue(ctx context.Context, req ReportIssueRequest) (Lead, error)

	// Find and Advance run on the caller's handle so assignment flows can
	// move the lead inside their own transaction.
	Find(ctx context.Context, db *gorm.DB, id snowflake.ID) (Lead, error)
	Advance(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status) (bool, error)
}

var (
	ErrNotFound          = errors.New("lead_not_found")
	ErrServiceNotFound   = errors.New("service_not_found")
	ErrInvalidTitle      = errors.New("invalid_title")
	ErrInvalidContact    = errors.New("invalid_contact")
	ErrInvalidStatus     = errors.New("invalid_status")
	ErrInvalidIssueNote  = errors.New("invalid_issue_note")
	ErrInvalidTransition = errors.New("invalid_status_transition")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInvalidPageToken  = errors.New("invalid_page_token")
)
