package service

import (
	"context"
	"strings"
	"time"

	authordomain "github.com/billfold/billfold/internal/author/domain"
	"github.com/billfold/billfold/pkg/db/option"
	"github.com/billfold/billfold/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node

	authors repository.Repository[authordomain.Author]
}

func NewService(p ServiceParam) authordomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("author.service"),
		genID: p.GenID,

		authors: repository.ProvideStore[authordomain.Author](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req authordomain.CreateAuthorRequest) (authordomain.Author, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return authordomain.Author{}, authordomain.ErrInvalidName
	}

	now := time.Now().UTC()
	author := authordomain.Author{
		ID:           s.genID.Generate(),
		UserID:       req.UserID,
		Name:         name,
		LinkedUserID: req.LinkedUserID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.authors.Create(ctx, &author); err != nil {
		return authordomain.Author{}, err
	}
	return author, nil
}

func (s *Service) List(ctx context.Context, userID snowflake.ID) ([]authordomain.Author, error) {
	items, err := s.authors.Find(ctx, &authordomain.Author{UserID: userID},
		option.WithSortBy(option.QuerySortBy{Field: "name", Allow: map[string]bool{"name": true}}))
	if err != nil {
		return nil, err
	}
	authors := make([]authordomain.Author, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		authors = append(authors, *item)
	}
	return authors, nil
}

func (s *Service) GetByID(ctx context.Context, userID, id snowflake.ID) (authordomain.Author, error) {
	item, err := s.authors.FindOne(ctx, &authordomain.Author{ID: id, UserID: userID})
	if err != nil {
		return authordomain.Author{}, err
	}
	if item == nil {
		return authordomain.Author{}, authordomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Owner(ctx context.Context, userID snowflake.ID) (authordomain.Author, error) {
	item, err := s.authors.FindOne(ctx, &authordomain.Author{UserID: userID, IsOwner: true})
	if err != nil {
		return authordomain.Author{}, err
	}
	if item == nil {
		return authordomain.Author{}, authordomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, req authordomain.UpdateAuthorRequest) (authordomain.Author, error) {
	author, err := s.GetByID(ctx, req.UserID, req.ID)
	if err != nil {
		return authordomain.Author{}, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return authordomain.Author{}, authordomain.ErrInvalidName
		}
		updates["name"] = name
		author.Name = name
	}
	if req.LinkedUserID != nil {
		if author.IsOwner {
			return authordomain.Author{}, authordomain.ErrOwnerImmutable
		}
		updates["linked_user_id"] = *req.LinkedUserID
		author.LinkedUserID = req.LinkedUserID
	}

	if err := s.authors.Update(ctx, author.ID.String(), updates); err != nil {
		return authordomain.Author{}, err
	}
	return author, nil
}

func (s *Service) Delete(ctx context.Context, userID, id snowflake.ID) error {
	author, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if author.IsOwner {
		return authordomain.ErrOwnerImmutable
	}
	return s.authors.Delete(ctx, author.ID.String())
}
