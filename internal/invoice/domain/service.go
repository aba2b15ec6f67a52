package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// AssignmentInput is one author's slice of an item being created.
type AssignmentInput struct {
	AuthorID snowflake.ID
	Amount   int64
	IsPaid   bool
}

type CreateItemRequest struct {
	UserID       snowflake.ID
	CardID       snowflake.ID
	Description  string
	Amount       int64
	CategoryID   *snowflake.ID
	AuthorID     snowflake.ID
	PurchaseDate time.Time
	Assignments  []AssignmentInput
}

type GenerateInstallmentsRequest struct {
	UserID            snowflake.ID
	CardID            snowflake.ID
	Description       string
	TotalAmount       int64
	TotalInstallments int
	// StartNumber lets a purchase already partway through its sequence be
	// tracked without fabricating earlier invoices. Zero means 1.
	StartNumber  int
	CategoryID   *snowflake.ID
	AuthorID     snowflake.ID
	PurchaseDate time.Time
	Assignments  []AssignmentInput
}

type PayItemRequest struct {
	UserID snowflake.ID
	ItemID snowflake.ID
	// AuthorID pays a single assignment when set; otherwise the whole item.
	AuthorID *snowflake.ID
}

type Service interface {
	// GetOrCreate returns the invoice for (card, month, year), creating it
	// with computed closing/due dates when missing.
	GetOrCreate(ctx context.Context, userID, cardID snowflake.ID, month time.Month, year int) (Invoice, error)
	// ActiveForCard resolves the invoice currently receiving purchases.
	ActiveForCard(ctx context.Context, userID, cardID snowflake.ID, at time.Time) (Invoice, error)
	GetByID(ctx context.Context, userID, id snowflake.ID) (Invoice, error)
	ListByCard(ctx context.Context, userID, cardID snowflake.ID) ([]Invoice, error)

	CreateItem(ctx context.Context, req CreateItemRequest) (InvoiceItem, error)
	DeleteItem(ctx context.Context, userID, itemID snowflake.ID) error
	PayItem(ctx context.Context, req PayItemRequest) error

	GenerateInstallments(ctx context.Context, req GenerateInstallmentsRequest) ([]InvoiceItem, error)
	DeleteInstallmentGroup(ctx context.Context, userID snowflake.ID, groupID string) error

	CloseInvoice(ctx context.Context, userID, invoiceID snowflake.ID) error
	// MarkOverdue flags unpaid invoices whose due date has passed. Used by
	// the scheduler; returns the number of invoices flagged.
	MarkOverdue(ctx context.Context, now time.Time) (int, error)
}

var (
	ErrInvoiceNotFound          = errors.New("invoice_not_found")
	ErrItemNotFound             = errors.New("item_not_found")
	ErrAssignmentNotFound       = errors.New("assignment_not_found")
	ErrInvalidAmount            = errors.New("invalid_amount")
	ErrInvalidDescription       = errors.New("invalid_description")
	ErrInvalidAuthor            = errors.New("invalid_author")
	ErrInvalidInstallments      = errors.New("invalid_installments")
	ErrAssignmentSumMismatch    = errors.New("assignment_sum_mismatch")
	ErrInvalidStatusTransition  = errors.New("invalid_status_transition")
	ErrInstallmentGroupNotFound = errors.New("installment_group_not_found")
)
