package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/lead/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, lead *domain.Lead) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO leads (
			id, customer_id, service_id, title, description, location,
			contact_name, contact_email, contact_phone, status, credit_cost,
			issue_note, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		lead.ID,
		lead.CustomerID,
		lead.ServiceID,
		lead.Title,
		lead.Description,
		lead.Location,
		lead.ContactName,
		lead.ContactEmail,
		lead.ContactPhone,
		string(lead.Status),
		lead.CreditCost,
		lead.IssueNote,
		lead.CreatedAt,
		lead.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Lead, error) {
	var lead domain.Lead
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, service_id, title, description, location,
			contact_name, contact_email, contact_phone, status, credit_cost,
			issue_note, created_at, updated_at
		FROM leads WHERE id = ?`,
		id,
	).Scan(&lead).Error
	if err != nil {
		return nil, err
	}
	if lead.ID == 0 {
		return nil, nil
	}
	return &lead, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Lead, error) {
	var leads []*domain.Lead
	stmt := db.WithContext(ctx).Model(&domain.Lead{})
	if filter.CustomerID != 0 {
		stmt = stmt.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", string(filter.Status))
	}
	if filter.AfterID > 0 {
		stmt = stmt.Where("id < ?", filter.AfterID)
	}
	if err := stmt.Order("id desc").Limit(filter.Limit + 1).Find(&leads).Error; err != nil {
		return nil, err
	}
	return leads, nil
}

func (r *repo) UpdateStatus(
	ctx context.Context,
	db *gorm.DB,
	id snowflake.ID,
	from, to domain.Status,
	issueNote *string,
	now time.Time,
) (int64, error) {
	var result *gorm.DB
	if issueNote != nil {
		result = db.WithContext(ctx).Exec(
			`UPDATE leads SET status = ?, issue_note = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(to), *issueNote, now, id, string(from),
		)
	} else {
		result = db.WithContext(ctx).Exec(
			`UPDATE leads SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
			string(to), now, id, string(from),
		)
	}
	return result.RowsAffected, result.Error
}

func (r *repo) AssignmentStatus(ctx context.Context, db *gorm.DB, leadID, professionalID snowflake.ID) (string, error) {
	var status string
	err := db.WithContext(ctx).Raw(
		`SELECT status FROM assignments WHERE lead_id = ? AND professional_id = ?`,
		leadID,
		professionalID,
	).Scan(&status).Error
	if err != nil {
		return "", err
	}
	return status, nil
}
