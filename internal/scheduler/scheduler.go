// Package scheduler runs the periodic jobs: materializing due
// subscriptions and flagging overdue invoices.
package scheduler

import (
	"context"
	"time"

	"github.com/billfold/billfold/internal/clock"
	invoicedomain "github.com/billfold/billfold/internal/invoice/domain"
	"github.com/billfold/billfold/internal/observability/metrics"
	subscriptiondomain "github.com/billfold/billfold/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const jobTimeout = 2 * time.Minute

type Params struct {
	fx.In

	Log             *zap.Logger
	Clock           clock.Clock
	InvoiceSvc      invoicedomain.Service
	SubscriptionSvc subscriptiondomain.Service
	Metrics         *metrics.SchedulerMetrics `optional:"true"`
}

// Scheduler ticks at a fixed interval and runs each job with its own
// timeout. One failing job never blocks the other.
type Scheduler struct {
	log      *zap.Logger
	clock    clock.Clock
	interval time.Duration

	invoiceSvc      invoicedomain.Service
	subscriptionSvc subscriptiondomain.Service
	metrics         *metrics.SchedulerMetrics

	stop chan struct{}
	done chan struct{}
}

func New(p Params, interval time.Duration) *Scheduler {
	return &Scheduler{
		log:             p.Log.Named("scheduler"),
		clock:           p.Clock,
		interval:        interval,
		invoiceSvc:      p.InvoiceSvc,
		subscriptionSvc: p.SubscriptionSvc,
		metrics:         p.Metrics,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
	}
}

// RunOnce executes every job a single time.
func (s *Scheduler) RunOnce(ctx context.Context) {
	now := s.clock.Now()

	s.runJob(ctx, "subscriptions.materialize", func(ctx context.Context) (int, error) {
		return s.subscriptionSvc.MaterializeDue(ctx, now)
	})
	s.runJob(ctx, "invoices.mark_overdue", func(ctx context.Context) (int, error) {
		return s.invoiceSvc.MarkOverdue(ctx, now)
	})
}

// Start launches the tick loop. The first pass runs immediately.
func (s *Scheduler) Start() {
	go s.loop()
}

// Stop ends the loop and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	close(s.stop)
	<-s.done
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(context.Background())
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.RunOnce(context.Background())
		}
	}
}

func (s *Scheduler) runJob(ctx context.Context, name string, fn func(ctx context.Context) (int, error)) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	start := time.Now()
	if s.metrics != nil {
		s.metrics.IncJobRun(name)
	}

	affected, err := fn(ctx)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.ObserveJobDuration(name, elapsed)
	}

	if err != nil {
		if s.metrics != nil {
			s.metrics.IncJobError(name)
		}
		s.log.Error("job failed",
			zap.String("job", name),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return
	}
	if affected > 0 {
		s.log.Info("job completed",
			zap.String("job", name),
			zap.Int("affected", affected),
			zap.Duration("elapsed", elapsed),
		)
	}
}
