// Package seed inserts the default categories shared by every account.
package seed

import (
	"context"
	"time"

	categorydomain "github.com/billfold/billfold/internal/category/domain"
	"github.com/billfold/billfold/pkg/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("seed",
	fx.Invoke(Run),
)

type defaultCategory struct {
	name  string
	icon  string
	color string
}

var defaults = []defaultCategory{
	{"Groceries", "shopping-cart", "#4CAF50"},
	{"Dining", "utensils", "#FF9800"},
	{"Transport", "car", "#2196F3"},
	{"Health", "heart", "#E91E63"},
	{"Entertainment", "film", "#9C27B0"},
	{"Home", "home", "#795548"},
	{categorydomain.SubscriptionsCategoryName, "refresh-cw", "#607D8B"},
}

// Run inserts any default category that is not present yet. Safe to run on
// every boot.
func Run(db *gorm.DB, genID *snowflake.Node, log *zap.Logger) error {
	log = log.Named("seed")
	ctx := context.Background()
	categories := repository.ProvideStore[categorydomain.Category](db)

	now := time.Now().UTC()
	var missing []*categorydomain.Category
	for _, def := range defaults {
		count, err := categories.Count(ctx, &categorydomain.Category{Name: def.name, IsDefault: true})
		if err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		missing = append(missing, &categorydomain.Category{
			ID:        genID.Generate(),
			Name:      def.name,
			Icon:      def.icon,
			Color:     def.color,
			IsDefault: true,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if len(missing) == 0 {
		return nil
	}
	if err := categories.BatchCreate(ctx, missing); err != nil {
		return err
	}
	log.Info("default categories seeded", zap.Int("created", len(missing)))
	return nil
}
