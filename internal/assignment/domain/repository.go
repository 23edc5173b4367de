package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	ProfessionalID snowflake.ID
	LeadID         snowflake.ID
	Status         Status
	AfterID        int64
	Limit          int
}

type Repository interface {
	// Insert reports false when the lead and professional pair already exists.
	Insert(ctx context.Context, db *gorm.DB, assignment *Assignment) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Assignment, error)
	FindByLeadAndProfessional(ctx context.Context, db *gorm.DB, leadID, professionalID snowflake.ID) (*Assignment, error)
	// Transition changes status only while the row is still in from.
	Transition(ctx context.Context, db *gorm.DB, id snowflake.ID, from []Status, to Status, respondedAt *time.Time, now time.Time) (int64, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Assignment, error)
	ExpirePending(ctx context.Context, db *gorm.DB, cutoff time.Time, now time.Time) (int64, error)
}
