package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/assignment/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, assignment *domain.Assignment) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO assignments (id, lead_id, professional_id, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (lead_id, professional_id) DO NOTHING`,
		assignment.ID,
		assignment.LeadID,
		assignment.ProfessionalID,
		string(assignment.Status),
		assignment.CreatedAt,
		assignment.UpdatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

const selectColumns = `SELECT id, lead_id, professional_id, status, responded_at, created_at, updated_at FROM assignments`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	if err := db.WithContext(ctx).Raw(selectColumns+` WHERE id = ?`, id).Scan(&assignment).Error; err != nil {
		return nil, err
	}
	if assignment.ID == 0 {
		return nil, nil
	}
	return &assignment, nil
}

func (r *repo) FindByLeadAndProfessional(ctx context.Context, db *gorm.DB, leadID, professionalID snowflake.ID) (*domain.Assignment, error) {
	var assignment domain.Assignment
	err := db.WithContext(ctx).Raw(
		selectColumns+` WHERE lead_id = ? AND professional_id = ?`,
		leadID,
		professionalID,
	).Scan(&assignment).Error
	if err != nil {
		return nil, err
	}
	if assignment.ID == 0 {
		return nil, nil
	}
	return &assignment, nil
}

func (r *repo) Transition(
	ctx context.Context,
	db *gorm.DB,
	id snowflake.ID,
	from []domain.Status,
	to domain.Status,
	respondedAt *time.Time,
	now time.Time,
) (int64, error) {
	statuses := make([]string, 0, len(from))
	for _, status := range from {
		statuses = append(statuses, string(status))
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE assignments SET status = ?, responded_at = ?, updated_at = ?
		WHERE id = ? AND status IN ?`,
		string(to),
		respondedAt,
		now,
		id,
		statuses,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Assignment, error) {
	var assignments []*domain.Assignment
	stmt := db.WithContext(ctx).Model(&domain.Assignment{})
	if filter.ProfessionalID != 0 {
		stmt = stmt.Where("professional_id = ?", filter.ProfessionalID)
	}
	if filter.LeadID != 0 {
		stmt = stmt.Where("lead_id = ?", filter.LeadID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", string(filter.Status))
	}
	if filter.AfterID > 0 {
		stmt = stmt.Where("id < ?", filter.AfterID)
	}
	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}
	if err := stmt.Find(&assignments).Error; err != nil {
		return nil, err
	}
	return assignments, nil
}

func (r *repo) ExpirePending(ctx context.Context, db *gorm.DB, cutoff time.Time, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE assignments SET status = ?, updated_at = ? WHERE status = ? AND updated_at < ?`,
		string(domain.StatusMissed),
		now,
		string(domain.StatusPending),
		cutoff,
	)
	return result.RowsAffected, result.Error
}
