package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/auth"
	"github.com/smallbiznis/leadhub/pkg/db/pagination"
)

type RegisterRequest struct {
	Name     string
	Email    string
	Phone    string
	Password string
	Role     string
}

type LoginRequest struct {
	Email    string
	Password string
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

type Me struct {
	User    User                 `json:"user"`
	Profile *ProfessionalProfile `json:"profile,omitempty"`
}

type ListUsersRequest struct {
	pagination.Pagination
	Role   string
	Status string
}

type ListUsersResponse struct {
	pagination.PageInfo
	Users []User `json:"users"`
}

type SetStatusRequest struct {
	UserID snowflake.ID
	Status string
}

type SetTrustScoreRequest struct {
	UserID snowflake.ID
	Score  int
}

type BootstrapAdminRequest struct {
	Name     string
	Email    string
	Password string
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (User, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Authenticate(ctx context.Context, token string) (auth.Principal, error)
	GetMe(ctx context.Context) (Me, error)
	Get(ctx context.Context, id snowflake.ID) (User, error)
	GetProfile(ctx context.Context, userID snowflake.ID) (ProfessionalProfile, error)
	List(ctx context.Context, req ListUsersRequest) (ListUsersResponse, error)
	SetStatus(ctx context.Context, req SetStatusRequest) (User, error)
	SetTrustScore(ctx context.Context, req SetTrustScoreRequest) (ProfessionalProfile, error)
	EnsureAdmin(ctx context.Context, req BootstrapAdminRequest) error
}

var (
	ErrNotFound            = errors.New("user_not_found")
	ErrProfileNotFound     = errors.New("professional_profile_not_found")
	ErrEmailTaken          = errors.New("email_taken")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrBlocked             = errors.New("user_blocked")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidEmail        = errors.New("invalid_email")
	ErrInvalidPassword     = errors.New("invalid_password")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidTrustScore   = errors.New("invalid_trust_score")
	ErrCannotBlockSelf     = errors.New("cannot_block_self")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrBootstrapIncomplete = errors.New("bootstrap_admin_incomplete")
)

func ParseStatus(value string) (Status, bool) {
	switch Status(value) {
	case StatusActive:
		return StatusActive, true
	case StatusBlocked:
		return StatusBlocked, true
	default:
		return "", false
	}
}
