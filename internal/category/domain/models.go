// Package domain contains persistence models for expense categories.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// SubscriptionsCategoryName is the reserved default used for recurring
// charges materialized from subscriptions.
const SubscriptionsCategoryName = "Subscriptions"

// Category labels invoice items. Default categories are shared across all
// accounts (UserID is nil) and cannot be modified.
type Category struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID    *snowflake.ID `gorm:"index" json:"user_id,omitempty"`
	Name      string        `gorm:"type:text;not null" json:"name"`
	Icon      string        `gorm:"type:text" json:"icon"`
	Color     string        `gorm:"type:text" json:"color"`
	IsDefault bool          `gorm:"not null;default:false" json:"is_default"`
	CreatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Category) TableName() string { return "categories" }
