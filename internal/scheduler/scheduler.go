package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pesantrenhub/sppbill/internal/clock"
	generationdomain "github.com/pesantrenhub/sppbill/internal/generation/domain"
	"github.com/pesantrenhub/sppbill/internal/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("scheduler_invalid_config")

type Params struct {
	fx.In

	Log           *zap.Logger
	GenerationSvc generationdomain.Service
	Clock         clock.Clock
	Config        Config `optional:"true"`
}

// Scheduler owns the automatic generation trigger. Bill generation used to
// hang off a UI mount; here it is an infrastructure loop that any caller
// (timer, CLI, ops endpoint) can also drive through RunOnce.
type Scheduler struct {
	log           *zap.Logger
	cfg           Config
	clock         clock.Clock
	generationSvc generationdomain.Service
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenerationSvc == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		log:           p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:           p.Config.withDefaults(),
		clock:         p.Clock,
		generationSvc: p.GenerationSvc,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	log := s.log.With(zap.String("job", name))
	err := fn(ctx)
	metrics.Billing().ObserveJobDuration(name, time.Since(start))

	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out",
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, "generate_bills", func(ctx context.Context) error {
		result, err := s.generationSvc.CheckAndGenerateBills(ctx, s.clock.Now())
		if err != nil {
			return err
		}
		if result.Ran {
			s.log.Info("generation run complete",
				zap.String("period", result.PeriodKey),
				zap.Int("inserted", result.Inserted),
			)
		}
		return nil
	})
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
