// Package domain contains persistence models for credit cards.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Card holds a credit card's billing configuration. ClosingDay and DueDay
// are days of month in [1,31]; when a month is shorter they clamp to its
// last day.
//
// A shared card mirrors a card owned by someone else: IsShared is set,
// OwnerName names the owner for display, and AuthorIDOnOwner pins the card
// to the participant identity this account has on the owner's side, so
// only that participant's slice of each item is visible here.
type Card struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID          snowflake.ID  `gorm:"not null;index" json:"user_id"`
	Name            string        `gorm:"type:text;not null" json:"name"`
	ClosingDay      int           `gorm:"not null" json:"closing_day"`
	DueDay          int           `gorm:"not null" json:"due_day"`
	CreditLimit     int64         `gorm:"not null;default:0" json:"credit_limit"`
	Color           string        `gorm:"type:text" json:"color"`
	Active          bool          `gorm:"not null;default:true" json:"active"`
	IsShared        bool          `gorm:"not null;default:false" json:"is_shared"`
	OwnerName       string        `gorm:"type:text" json:"owner_name,omitempty"`
	AuthorIDOnOwner *snowflake.ID `gorm:"index" json:"author_id_on_owner,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Card) TableName() string { return "cards" }
