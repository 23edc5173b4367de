package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	CustomerID snowflake.ID
	Status     Status
	AfterID    int64
	Limit      int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, lead *Lead) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Lead, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Lead, error)
	// UpdateStatus moves the lead only if it is still in from. It reports the
	// number of rows changed.
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, from, to Status, issueNote *string, now time.Time) (int64, error)
	// AssignmentStatus returns the status of the professional's assignment on
	// the lead, or an empty string when there is none.
	AssignmentStatus(ctx context.Context, db *gorm.DB, leadID, professionalID snowflake.ID) (string, error)
}
