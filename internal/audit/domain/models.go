package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	ActorID    *snowflake.ID     `json:"actor_id,omitempty"`
	ActorRole  string            `gorm:"not null" json:"actor_role"`
	Action     string            `gorm:"not null" json:"action"`
	TargetType string            `gorm:"not null" json:"target_type"`
	TargetID   string            `gorm:"not null" json:"target_id"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null" json:"metadata"`
	RequestID  string            `gorm:"not null" json:"request_id,omitempty"`
	CreatedAt  time.Time         `gorm:"not null" json:"created_at"`
}

func (AuditLog) TableName() string { return "audit_logs" }

const (
	ActionAssignmentCreate  = "assignment.create"
	ActionAssignmentExpire  = "assignment.expire"
	ActionUserBlock         = "user.block"
	ActionUserUnblock       = "user.unblock"
	ActionUserTrustScore    = "user.trust_score"
	ActionCategoryCreate    = "category.create"
	ActionCategoryUpdate    = "category.update"
	ActionServiceCreate     = "service.create"
	ActionServiceUpdate     = "service.update"
	ActionBundleCreate      = "bundle.create"
	ActionBundleUpdate      = "bundle.update"
	ActionTransactionSettle = "transaction.settle"
)
