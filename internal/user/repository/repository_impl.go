package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/user/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO users (id, name, email, phone, password_hash, role, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.Status,
		user.CreatedAt,
		user.UpdatedAt,
	).Error
}

func (r *repo) InsertProfile(ctx context.Context, db *gorm.DB, profile *domain.ProfessionalProfile) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO professional_profiles (user_id, credits, trust_score, bio, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		profile.UserID,
		profile.Credits,
		profile.TrustScore,
		profile.Bio,
		profile.CreatedAt,
		profile.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, phone, password_hash, role, status, created_at, updated_at
		FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	var user domain.User
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, email, phone, password_hash, role, status, created_at, updated_at
		FROM users WHERE email = ?`,
		email,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) FindProfile(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*domain.ProfessionalProfile, error) {
	var profile domain.ProfessionalProfile
	err := db.WithContext(ctx).Raw(
		`SELECT user_id, credits, trust_score, bio, created_at, updated_at
		FROM professional_profiles WHERE user_id = ?`,
		userID,
	).Scan(&profile).Error
	if err != nil {
		return nil, err
	}
	if profile.UserID == 0 {
		return nil, nil
	}
	return &profile, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.User, error) {
	var users []*domain.User
	stmt := db.WithContext(ctx).Model(&domain.User{})
	if filter.Role != "" {
		stmt = stmt.Where("role = ?", filter.Role)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.AfterID > 0 {
		stmt = stmt.Where("id < ?", filter.AfterID)
	}
	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}
	if err := stmt.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.Status, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET status = ?, updated_at = ? WHERE id = ?`,
		status, now, id,
	).Error
}

func (r *repo) UpdateTrustScore(ctx context.Context, db *gorm.DB, userID snowflake.ID, score int, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE professional_profiles SET trust_score = ?, updated_at = ? WHERE user_id = ?`,
		score, now, userID,
	).Error
}
