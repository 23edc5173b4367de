package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/ledger/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Decrement(ctx context.Context, db *gorm.DB, userID snowflake.ID, amount int64, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE professional_profiles
		SET credits = credits - ?, updated_at = ?
		WHERE user_id = ? AND credits >= ?`,
		amount,
		now,
		userID,
		amount,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Increment(ctx context.Context, db *gorm.DB, userID snowflake.ID, amount int64, now time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE professional_profiles
		SET credits = credits + ?, updated_at = ?
		WHERE user_id = ?`,
		amount,
		now,
		userID,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) Balance(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, bool, error) {
	var row struct {
		UserID  snowflake.ID
		Credits int64
	}
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, credits FROM professional_profiles WHERE user_id = ?`,
		userID,
	).Scan(&row).Error
	if err != nil {
		return 0, false, err
	}
	if row.UserID == 0 {
		return 0, false, nil
	}
	return row.Credits, true, nil
}

func (r *repo) InsertEntry(ctx context.Context, db *gorm.DB, entry *domain.CreditEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO credit_entries (
			id, user_id, entry_type, amount, balance_after, reference_type, reference_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		string(entry.EntryType),
		entry.Amount,
		entry.BalanceAfter,
		entry.ReferenceType,
		entry.ReferenceID,
		entry.CreatedAt,
	).Error
}

func (r *repo) ListEntries(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.CreditEntry, error) {
	var entries []*domain.CreditEntry
	stmt := db.WithContext(ctx).Model(&domain.CreditEntry{}).Where("user_id = ?", filter.UserID)
	if filter.AfterID > 0 {
		stmt = stmt.Where("id < ?", filter.AfterID)
	}
	if err := stmt.Order("id desc").Limit(filter.Limit + 1).Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
