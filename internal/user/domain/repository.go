package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/auth"
	"gorm.io/gorm"
)

type ListFilter struct {
	Role    auth.Role
	Status  Status
	AfterID int64
	Limit   int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	InsertProfile(ctx context.Context, db *gorm.DB, profile *ProfessionalProfile) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	FindProfile(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*ProfessionalProfile, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*User, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, now time.Time) error
	UpdateTrustScore(ctx context.Context, db *gorm.DB, userID snowflake.ID, score int, now time.Time) error
}
