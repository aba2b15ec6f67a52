package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateCardRequest struct {
	UserID          snowflake.ID
	Name            string
	ClosingDay      int
	DueDay          int
	CreditLimit     int64
	Color           string
	IsShared        bool
	OwnerName       string
	AuthorIDOnOwner *snowflake.ID
}

type UpdateCardRequest struct {
	UserID      snowflake.ID
	ID          snowflake.ID
	Name        *string
	ClosingDay  *int
	DueDay      *int
	CreditLimit *int64
	Color       *string
	Active      *bool
}

type Service interface {
	Create(ctx context.Context, req CreateCardRequest) (Card, error)
	List(ctx context.Context, userID snowflake.ID) ([]Card, error)
	GetByID(ctx context.Context, userID, id snowflake.ID) (Card, error)
	Update(ctx context.Context, req UpdateCardRequest) (Card, error)
	Delete(ctx context.Context, userID, id snowflake.ID) error
}

var (
	ErrInvalidName       = errors.New("invalid_card_name")
	ErrInvalidClosingDay = errors.New("invalid_closing_day")
	ErrInvalidDueDay     = errors.New("invalid_due_day")
	ErrInvalidSharing    = errors.New("invalid_sharing_link")
	ErrNotFound          = errors.New("card_not_found")
)
