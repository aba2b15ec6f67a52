package service

import (
	"context"
	"strings"
	"time"

	"github.com/billfold/billfold/internal/billingcycle"
	carddomain "github.com/billfold/billfold/internal/card/domain"
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

	cards repository.Repository[carddomain.Card]
}

func NewService(p ServiceParam) carddomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("card.service"),
		genID: p.GenID,

		cards: repository.ProvideStore[carddomain.Card](p.DB),
	}
}

func (s *Service) Create(ctx context.Context, req carddomain.CreateCardRequest) (carddomain.Card, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return carddomain.Card{}, carddomain.ErrInvalidName
	}
	if !billingcycle.ValidDay(req.ClosingDay) {
		return carddomain.Card{}, carddomain.ErrInvalidClosingDay
	}
	if !billingcycle.ValidDay(req.DueDay) {
		return carddomain.Card{}, carddomain.ErrInvalidDueDay
	}
	if req.IsShared && req.AuthorIDOnOwner == nil {
		return carddomain.Card{}, carddomain.ErrInvalidSharing
	}

	now := time.Now().UTC()
	card := carddomain.Card{
		ID:              s.genID.Generate(),
		UserID:          req.UserID,
		Name:            name,
		ClosingDay:      req.ClosingDay,
		DueDay:          req.DueDay,
		CreditLimit:     req.CreditLimit,
		Color:           strings.TrimSpace(req.Color),
		Active:          true,
		IsShared:        req.IsShared,
		OwnerName:       strings.TrimSpace(req.OwnerName),
		AuthorIDOnOwner: req.AuthorIDOnOwner,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.cards.Create(ctx, &card); err != nil {
		return carddomain.Card{}, err
	}
	return card, nil
}

func (s *Service) List(ctx context.Context, userID snowflake.ID) ([]carddomain.Card, error) {
	items, err := s.cards.Find(ctx, &carddomain.Card{UserID: userID},
		option.WithSortBy(option.QuerySortBy{Field: "name", Allow: map[string]bool{"name": true}}))
	if err != nil {
		return nil, err
	}
	cards := make([]carddomain.Card, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		cards = append(cards, *item)
	}
	return cards, nil
}

func (s *Service) GetByID(ctx context.Context, userID, id snowflake.ID) (carddomain.Card, error) {
	item, err := s.cards.FindOne(ctx, &carddomain.Card{ID: id, UserID: userID})
	if err != nil {
		return carddomain.Card{}, err
	}
	if item == nil {
		return carddomain.Card{}, carddomain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) Update(ctx context.Context, req carddomain.UpdateCardRequest) (carddomain.Card, error) {
	card, err := s.GetByID(ctx, req.UserID, req.ID)
	if err != nil {
		return carddomain.Card{}, err
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return carddomain.Card{}, carddomain.ErrInvalidName
		}
		updates["name"] = name
		card.Name = name
	}
	if req.ClosingDay != nil {
		if !billingcycle.ValidDay(*req.ClosingDay) {
			return carddomain.Card{}, carddomain.ErrInvalidClosingDay
		}
		updates["closing_day"] = *req.ClosingDay
		card.ClosingDay = *req.ClosingDay
	}
	if req.DueDay != nil {
		if !billingcycle.ValidDay(*req.DueDay) {
			return carddomain.Card{}, carddomain.ErrInvalidDueDay
		}
		updates["due_day"] = *req.DueDay
		card.DueDay = *req.DueDay
	}
	if req.CreditLimit != nil {
		updates["credit_limit"] = *req.CreditLimit
		card.CreditLimit = *req.CreditLimit
	}
	if req.Color != nil {
		updates["color"] = strings.TrimSpace(*req.Color)
		card.Color = strings.TrimSpace(*req.Color)
	}
	if req.Active != nil {
		updates["active"] = *req.Active
		card.Active = *req.Active
	}

	if err := s.cards.Update(ctx, card.ID.String(), updates); err != nil {
		return carddomain.Card{}, err
	}
	return card, nil
}

func (s *Service) Delete(ctx context.Context, userID, id snowflake.ID) error {
	card, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	return s.cards.Delete(ctx, card.ID.String())
}
