package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	leaddomain "github.com/smallbiznis/leadhub/internal/lead/domain"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
)

type AssignRequest struct {
	LeadID         snowflake.ID
	ProfessionalID snowflake.ID
}

type RespondRequest struct {
	AssignmentID snowflake.ID
	Action       string
}

// RespondResult carries the customer contact only after a successful accept.
type RespondResult struct {
	Assignment     Assignment          `json:"assignment"`
	CreditsCharged int64               `json:"credits_charged,omitempty"`
	Balance        *int64              `json:"balance,omitempty"`
	Contact        *leaddomain.Contact `json:"contact,omitempty"`
}

type ListRequest struct {
	pagination.Pagination
	Status string       `form:"status"`
	LeadID snowflake.ID `form:"-"`
}

type ListResponse struct {
	pagination.PageInfo
	Assignments []Assignment `json:"assignments"`
}

type Service interface {
	Assign(ctx context.Context, req AssignRequest) (Assignment, error)
	Respond(ctx context.Context, req RespondRequest) (RespondResult, error)
	ListMine(ctx context.Context, req ListRequest) (ListResponse, error)
	ListAll(ctx context.Context, req ListRequest) (ListResponse, error)
	ListByLead(ctx context.Context, leadID snowflake.ID) ([]Assignment, error)
	ExpireStale(ctx context.Context) (int64, error)
}

var (
	ErrNotFound             = errors.New("assignment_not_found")
	ErrForbidden            = errors.New("assignment_forbidden")
	ErrConflict             = errors.New("assignment_conflict")
	ErrInvalidAction        = errors.New("invalid_action")
	ErrInvalidStatus        = errors.New("invalid_status")
	ErrLeadClosed           = errors.New("lead_closed")
	ErrProfessionalNotFound = errors.New("professional_not_found")
	ErrUnauthenticated      = errors.New("unauthenticated")
	ErrInvalidPageToken     = errors.New("invalid_page_token")
)

// StatusConflictError reports the status that blocked a transition. It
// matches ErrConflict with errors.Is.
type StatusConflictError struct {
	Status Status
}

func (e *StatusConflictError) Error() string {
	return fmt.Sprintf("assignment_already_%s", strings.ToLower(string(e.Status)))
}

func (e *StatusConflictError) Is(target error) bool {
	return target == ErrConflict
}
