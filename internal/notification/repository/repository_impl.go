package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, notification *domain.Notification) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO notifications (id, user_id, type, message, data, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		notification.ID,
		notification.UserID,
		string(notification.Type),
		notification.Message,
		notification.Data,
		notification.Read,
		notification.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Notification, error) {
	var notification domain.Notification
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, type, message, data, read, read_at, created_at
		FROM notifications WHERE id = ?`,
		id,
	).Scan(&notification).Error
	if err != nil {
		return nil, err
	}
	if notification.ID == 0 {
		return nil, nil
	}
	return &notification, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Notification, error) {
	var notifications []*domain.Notification
	stmt := db.WithContext(ctx).Model(&domain.Notification{}).Where("user_id = ?", filter.UserID)
	if filter.UnreadOnly {
		stmt = stmt.Where("read = ?", false)
	}
	if filter.AfterID > 0 {
		stmt = stmt.Where("id < ?", filter.AfterID)
	}
	if err := stmt.Order("id desc").Limit(filter.Limit + 1).Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID, readAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE notifications SET read = ?, read_at = ? WHERE id = ? AND read = ?`,
		true,
		readAt,
		id,
		false,
	).Error
}
