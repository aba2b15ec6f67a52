// Package domain contains persistence models for invoices and their items.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// InvoiceStatus represents invoice lifecycle states. Transitions are
// monotonic: OPEN → CLOSED → PAID, with OVERDUE reachable from OPEN or
// CLOSED once the due date has passed unpaid.
type InvoiceStatus string

const (
	InvoiceStatusOpen    InvoiceStatus = "OPEN"
	InvoiceStatusClosed  InvoiceStatus = "CLOSED"
	InvoiceStatusPaid    InvoiceStatus = "PAID"
	InvoiceStatusOverdue InvoiceStatus = "OVERDUE"
)

// rank orders statuses for the monotonic-transition check. OVERDUE sits
// beside CLOSED: an overdue invoice can still be paid.
func (s InvoiceStatus) rank() int {
	switch s {
	case InvoiceStatusOpen:
		return 0
	case InvoiceStatusClosed, InvoiceStatusOverdue:
		return 1
	case InvoiceStatusPaid:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving to next keeps the lifecycle
// monotonic.
func (s InvoiceStatus) CanTransitionTo(next InvoiceStatus) bool {
	if s == next {
		return false
	}
	return next.rank() >= s.rank()
}

// Invoice is one card's bill for one reference month. There is exactly one
// invoice per (card, month, year); it is created lazily the first time an
// item lands on that month.
type Invoice struct {
	ID             snowflake.ID  `gorm:"primaryKey" json:"id"`
	UserID         snowflake.ID  `gorm:"not null;index" json:"user_id"`
	CardID         snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_invoice_card_period" json:"card_id"`
	ReferenceMonth int           `gorm:"not null;uniqueIndex:ux_invoice_card_period" json:"reference_month"`
	ReferenceYear  int           `gorm:"not null;uniqueIndex:ux_invoice_card_period" json:"reference_year"`
	ClosingDate    time.Time     `gorm:"not null" json:"closing_date"`
	DueDate        time.Time     `gorm:"not null" json:"due_date"`
	TotalAmount    int64         `gorm:"not null;default:0" json:"total_amount"`
	PaidAmount     int64         `gorm:"not null;default:0" json:"paid_amount"`
	Status         InvoiceStatus `gorm:"type:text;not null;default:'OPEN'" json:"status"`
	Items          []InvoiceItem `gorm:"foreignKey:InvoiceID" json:"items,omitempty"`
	CreatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// InvoiceItem is a single charge on an invoice. Installment purchases
// produce one item per month, all sharing an InstallmentGroupID. When the
// cost is split between people the item carries Assignments whose amounts
// sum to Amount.
type InvoiceItem struct {
	ID                 snowflake.ID     `gorm:"primaryKey" json:"id"`
	UserID             snowflake.ID     `gorm:"not null;index" json:"user_id"`
	InvoiceID          snowflake.ID     `gorm:"not null;index" json:"invoice_id"`
	CardID             snowflake.ID     `gorm:"not null;index" json:"card_id"`
	Description        string           `gorm:"type:text;not null" json:"description"`
	Amount             int64            `gorm:"not null" json:"amount"`
	CategoryID         *snowflake.ID    `gorm:"index" json:"category_id,omitempty"`
	AuthorID           snowflake.ID     `gorm:"not null;index" json:"author_id"`
	PurchaseDate       time.Time        `gorm:"not null" json:"purchase_date"`
	IsPaid             bool             `gorm:"not null;default:false" json:"is_paid"`
	IsInstallment      bool             `gorm:"not null;default:false" json:"is_installment"`
	InstallmentNumber  int              `gorm:"not null;default:0" json:"installment_number,omitempty"`
	TotalInstallments  int              `gorm:"not null;default:0" json:"total_installments,omitempty"`
	InstallmentGroupID *string          `gorm:"type:text;index" json:"installment_group_id,omitempty"`
	Assignments        []ItemAssignment `gorm:"foreignKey:ItemID" json:"assignments,omitempty"`
	CreatedAt          time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (InvoiceItem) TableName() string { return "invoice_items" }

// PaidPortion sums the amounts already settled against this item. A fully
// paid item counts in whole; otherwise only its paid assignments count.
func (i InvoiceItem) PaidPortion() int64 {
	if i.IsPaid {
		return i.Amount
	}
	var paid int64
	for _, a := range i.Assignments {
		if a.IsPaid {
			paid += a.Amount
		}
	}
	return paid
}

// ItemAssignment splits one item's cost between people.
type ItemAssignment struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	ItemID   snowflake.ID `gorm:"not null;index" json:"item_id"`
	AuthorID snowflake.ID `gorm:"not null;index" json:"author_id"`
	Amount   int64        `gorm:"not null" json:"amount"`
	IsPaid   bool         `gorm:"not null;default:false" json:"is_paid"`
}

// TableName sets the database table name.
func (ItemAssignment) TableName() string { return "item_assignments" }
