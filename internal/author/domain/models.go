// Package domain contains persistence models for authors.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Author is a person charges can be attributed to: the account owner or an
// added participant. A participant may be linked to another account, which
// gives that account visibility into cards shared with them.
type Author struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID       snowflake.ID  `gorm:"not null;index" json:"user_id"`
	Name         string        `gorm:"type:text;not null" json:"name"`
	IsOwner      bool          `gorm:"not null;default:false" json:"is_owner"`
	LinkedUserID *snowflake.ID `gorm:"index" json:"linked_user_id,omitempty"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Author) TableName() string { return "authors" }

// FirstName returns the author's first name for display grouping.
func (a Author) FirstName() string {
	for i := 0; i < len(a.Name); i++ {
		if a.Name[i] == ' ' {
			return a.Name[:i]
		}
	}
	return a.Name
}
