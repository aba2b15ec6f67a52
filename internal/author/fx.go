package author

import (
	"github.com/billfold/billfold/internal/author/service"
	"go.uber.org/fx"
)

var Module = fx.Module("author.service",
	fx.Provide(service.NewService),
)
