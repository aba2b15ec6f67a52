package scheduler

import (
	"context"

	"github.com/billfold/billfold/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("scheduler",
	fx.Provide(provideScheduler),
	fx.Invoke(registerHooks),
)

func provideScheduler(p Params, cfg *config.Config) *Scheduler {
	return New(p, cfg.SchedulerInterval)
}

func registerHooks(lc fx.Lifecycle, s *Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			s.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.Stop()
			return nil
		},
	})
}
