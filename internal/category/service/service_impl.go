package service

import (
	"context"
	"strings"
	"time"

	categorydomain "github.com/billfold/billfold/internal/category/domain"
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
}

func NewService(p ServiceParam) categorydomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("category.service"),
		genID: p.GenID,
	}
}

func (s *Service) Create(ctx context.Context, req categorydomain.CreateCategoryRequest) (categorydomain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return categorydomain.Category{}, categorydomain.ErrInvalidName
	}

	now := time.Now().UTC()
	userID := req.UserID
	category := categorydomain.Category{
		ID:        s.genID.Generate(),
		UserID:    &userID,
		Name:      name,
		Icon:      strings.TrimSpace(req.Icon),
		Color:     strings.TrimSpace(req.Color),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&category).Error; err != nil {
		return categorydomain.Category{}, err
	}
	return category, nil
}

func (s *Service) List(ctx context.Context, userID snowflake.ID) ([]categorydomain.Category, error) {
	var categories []categorydomain.Category
	err := s.db.WithContext(ctx).
		Where("user_id = ? OR is_default = ?", userID, true).
		Order("is_default desc, name asc").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

func (s *Service) GetByID(ctx context.Context, userID, id snowflake.ID) (categorydomain.Category, error) {
	var category categorydomain.Category
	err := s.db.WithContext(ctx).
		Where("id = ? AND (user_id = ? OR is_default = ?)", id, userID, true).
		First(&category).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return categorydomain.Category{}, categorydomain.ErrNotFound
		}
		return categorydomain.Category{}, err
	}
	return category, nil
}

func (s *Service) Subscriptions(ctx context.Context) (categorydomain.Category, error) {
	var category categorydomain.Category
	err := s.db.WithContext(ctx).
		Where("is_default = ? AND name = ?", true, categorydomain.SubscriptionsCategoryName).
		First(&category).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return categorydomain.Category{}, categorydomain.ErrNotFound
		}
		return categorydomain.Category{}, err
	}
	return category, nil
}

func (s *Service) Update(ctx context.Context, req categorydomain.UpdateCategoryRequest) (categorydomain.Category, error) {
	category, err := s.GetByID(ctx, req.UserID, req.ID)
	if err != nil {
		return categorydomain.Category{}, err
	}
	if category.IsDefault {
		return categorydomain.Category{}, categorydomain.ErrDefaultImmutable
	}

	updates := map[string]any{"updated_at": time.Now().UTC()}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return categorydomain.Category{}, categorydomain.ErrInvalidName
		}
		updates["name"] = name
		category.Name = name
	}
	if req.Icon != nil {
		updates["icon"] = strings.TrimSpace(*req.Icon)
		category.Icon = strings.TrimSpace(*req.Icon)
	}
	if req.Color != nil {
		updates["color"] = strings.TrimSpace(*req.Color)
		category.Color = strings.TrimSpace(*req.Color)
	}

	err = s.db.WithContext(ctx).Model(&categorydomain.Category{}).
		Where("id = ?", category.ID).
		Updates(updates).Error
	if err != nil {
		return categorydomain.Category{}, err
	}
	return category, nil
}

func (s *Service) Delete(ctx context.Context, userID, id snowflake.ID) error {
	category, err := s.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	if category.IsDefault {
		return categorydomain.ErrDefaultImmutable
	}
	return s.db.WithContext(ctx).Where("id = ?", category.ID).Delete(&categorydomain.Category{}).Error
}
