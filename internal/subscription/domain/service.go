package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// AssignmentInput is one author's slice of a subscription's split template.
type AssignmentInput struct {
	AuthorID snowflake.ID
	Amount   int64
}

type CreateRequest struct {
	UserID       snowflake.ID
	CardID       snowflake.ID
	Description  string
	Amount       int64
	BillingDay   int
	BillingCycle BillingCycle
	CategoryID   *snowflake.ID
	AuthorID     snowflake.ID
	Assignments  []AssignmentInput
}

type UpdateRequest struct {
	UserID      snowflake.ID
	ID          snowflake.ID
	Description *string
	Amount      *int64
	BillingDay  *int
	CategoryID  *snowflake.ID
	Assignments []AssignmentInput
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Subscription, error)
	List(ctx context.Context, userID snowflake.ID) ([]Subscription, error)
	GetByID(ctx context.Context, userID, id snowflake.ID) (Subscription, error)
	Update(ctx context.Context, req UpdateRequest) (Subscription, error)
	Delete(ctx context.Context, userID, id snowflake.ID) error

	Pause(ctx context.Context, userID, id snowflake.ID) error
	Resume(ctx context.Context, userID, id snowflake.ID) error

	// MaterializeDue creates invoice items for every active, unpaused
	// subscription whose billing date has arrived, advancing each one's
	// next occurrence. Used by the scheduler; returns the number of items
	// created.
	MaterializeDue(ctx context.Context, now time.Time) (int, error)
}

var (
	ErrNotFound              = errors.New("subscription_not_found")
	ErrInvalidDescription    = errors.New("invalid_description")
	ErrInvalidAmount         = errors.New("invalid_amount")
	ErrInvalidBillingDay     = errors.New("invalid_billing_day")
	ErrInvalidBillingCycle   = errors.New("invalid_billing_cycle")
	ErrInvalidAuthor         = errors.New("invalid_author")
	ErrAssignmentSumMismatch = errors.New("assignment_sum_mismatch")
)
