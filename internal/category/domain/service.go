package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateCategoryRequest struct {
	UserID snowflake.ID
	Name   string
	Icon   string
	Color  string
}

type UpdateCategoryRequest struct {
	UserID snowflake.ID
	ID     snowflake.ID
	Name   *string
	Icon   *string
	Color  *string
}

type Service interface {
	Create(ctx context.Context, req CreateCategoryRequest) (Category, error)
	// List returns the user's categories plus the shared defaults.
	List(ctx context.Context, userID snowflake.ID) ([]Category, error)
	GetByID(ctx context.Context, userID, id snowflake.ID) (Category, error)
	Subscriptions(ctx context.Context) (Category, error)
	Update(ctx context.Context, req UpdateCategoryRequest) (Category, error)
	Delete(ctx context.Context, userID, id snowflake.ID) error
}

var (
	ErrInvalidName      = errors.New("invalid_category_name")
	ErrNotFound         = errors.New("category_not_found")
	ErrDefaultImmutable = errors.New("default_category_immutable")
)
