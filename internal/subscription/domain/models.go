// Package domain contains persistence models for recurring charges.
package domain

import (
	"time"

	"github.com/billfold/billfold/internal/billingcycle"
	"github.com/bwmarrin/snowflake"
)

// BillingCycle is how often a subscription charges.
type BillingCycle string

const (
	BillingCycleMonthly    BillingCycle = "monthly"
	BillingCycleSemiannual BillingCycle = "semiannual"
	BillingCycleAnnual     BillingCycle = "annual"
)

// Months returns the cycle length in months, or 0 for an unknown cycle.
func (c BillingCycle) Months() int {
	switch c {
	case BillingCycleMonthly:
		return 1
	case BillingCycleSemiannual:
		return 6
	case BillingCycleAnnual:
		return 12
	default:
		return 0
	}
}

// Subscription is a recurring charge the scheduler turns into invoice
// items. NextBillingDate is the next occurrence still to be materialized;
// it advances by the cycle length each time, clamping BillingDay to short
// months.
type Subscription struct {
	ID              snowflake.ID             `gorm:"primaryKey" json:"id"`
	UserID          snowflake.ID             `gorm:"not null;index" json:"user_id"`
	CardID          snowflake.ID             `gorm:"not null;index" json:"card_id"`
	Description     string                   `gorm:"type:text;not null" json:"description"`
	Amount          int64                    `gorm:"not null" json:"amount"`
	BillingDay      int                      `gorm:"not null" json:"billing_day"`
	BillingCycle    BillingCycle             `gorm:"type:text;not null;default:'monthly'" json:"billing_cycle"`
	NextBillingDate time.Time                `gorm:"not null;index" json:"next_billing_date"`
	Active          bool                     `gorm:"not null;default:true" json:"active"`
	Paused          bool                     `gorm:"not null;default:false" json:"paused"`
	CategoryID      *snowflake.ID            `gorm:"index" json:"category_id,omitempty"`
	AuthorID        snowflake.ID             `gorm:"not null" json:"author_id"`
	Assignments     []SubscriptionAssignment `gorm:"foreignKey:SubscriptionID" json:"assignments,omitempty"`
	CreatedAt       time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time                `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// NextOccurrenceAfter advances the billing date by one cycle from the
// given occurrence.
func (s Subscription) NextOccurrenceAfter(occurrence time.Time) time.Time {
	month, year := occurrence.Month(), occurrence.Year()
	for i := 0; i < s.BillingCycle.Months(); i++ {
		month, year = billingcycle.Advance(month, year)
	}
	return billingcycle.DateClamped(year, month, s.BillingDay)
}

// SubscriptionAssignment is the split template copied onto each
// materialized item.
type SubscriptionAssignment struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	SubscriptionID snowflake.ID `gorm:"not null;index" json:"subscription_id"`
	AuthorID       snowflake.ID `gorm:"not null" json:"author_id"`
	Amount         int64        `gorm:"not null" json:"amount"`
}

// TableName sets the database table name.
func (SubscriptionAssignment) TableName() string { return "subscription_assignments" }
