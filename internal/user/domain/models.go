package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/leadhub/internal/auth"
)

type Status string

const (
	StatusActive  Status = "ACTIVE"
	StatusBlocked Status = "BLOCKED"
)

type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	Name         string       `gorm:"not null" json:"name"`
	Email        string       `gorm:"not null;uniqueIndex" json:"email"`
	Phone        string       `gorm:"not null" json:"phone,omitempty"`
	PasswordHash string       `gorm:"not null" json:"-"`
	Role         auth.Role    `gorm:"not null" json:"role"`
	Status       Status       `gorm:"not null" json:"status"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// ProfessionalProfile holds the single authoritative credit balance of a professional.
type ProfessionalProfile struct {
	UserID     snowflake.ID `gorm:"primaryKey" json:"user_id"`
	Credits    int64        `gorm:"not null" json:"credits"`
	TrustScore int          `gorm:"not null" json:"trust_score"`
	Bio        string       `gorm:"not null" json:"bio,omitempty"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

func (ProfessionalProfile) TableName() string { return "professional_profiles" }
