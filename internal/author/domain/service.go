package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateAuthorRequest struct {
	UserID       snowflake.ID
	Name         string
	LinkedUserID *snowflake.ID
}

type UpdateAuthorRequest struct {
	UserID       snowflake.ID
	ID           snowflake.ID
	Name         *string
	LinkedUserID *snowflake.ID
}

type Service interface {
	Create(ctx context.Context, req CreateAuthorRequest) (Author, error)
	List(ctx context.Context, userID snowflake.ID) ([]Author, error)
	GetByID(ctx context.Context, userID, id snowflake.ID) (Author, error)
	Owner(ctx context.Context, userID snowflake.ID) (Author, error)
	Update(ctx context.Context, req UpdateAuthorRequest) (Author, error)
	Delete(ctx context.Context, userID, id snowflake.ID) error
}

var (
	ErrInvalidName    = errors.New("invalid_author_name")
	ErrNotFound       = errors.New("author_not_found")
	ErrOwnerImmutable = errors.New("owner_author_immutable")
)
