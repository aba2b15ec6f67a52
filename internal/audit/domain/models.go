// Package domain contains the append-only audit log model.
package domain

import (
	"context"
	"time"

	"github.com/billfold/billfold/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	UserID     snowflake.ID      `gorm:"not null;index" json:"user_id"`
	Action     string            `gorm:"type:text;not null" json:"action"`
	TargetType string            `gorm:"type:text;not null" json:"target_type"`
	TargetID   string            `gorm:"type:text" json:"target_id"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }

type Service interface {
	// Log records an action; failures are logged, never propagated to the
	// caller's operation.
	Log(ctx context.Context, userID snowflake.ID, action, targetType, targetID string, metadata map[string]any)
	// List pages newest-first with an opaque cursor token.
	List(ctx context.Context, userID snowflake.ID, page pagination.Pagination) ([]AuditLog, *pagination.PageInfo, error)
}
