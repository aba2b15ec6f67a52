package category

import (
	"github.com/billfold/billfold/internal/category/service"
	"go.uber.org/fx"
)

var Module = fx.Module("category.service",
	fx.Provide(service.NewService),
)
