package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cubecomp/backend/internal/infrastructure"
	"github.com/cubecomp/backend/internal/service"
)

// Validator periodically checks whether the current comp still covers today
// and rolls over to the next one when it has expired. The comp window is
// day-granular, so a coarse interval is enough; rollover itself is
// idempotent across instances.
type Validator struct {
	comps    *service.CompetitionService
	metrics  *infrastructure.TelemetryMetrics
	logger   *zap.Logger
	interval time.Duration
}

// NewValidator creates a new validation worker
func NewValidator(comps *service.CompetitionService, metrics *infrastructure.TelemetryMetrics, logger *zap.Logger, interval time.Duration) *Validator {
	return &Validator{
		comps:    comps,
		metrics:  metrics,
		logger:   logger,
		interval: interval,
	}
}

// Run validates once immediately, then on every tick until the context is
// canceled.
func (v *Validator) Run(ctx context.Context) {
	v.logger.Info("Validation worker started", zap.Duration("interval", v.interval))

	v.check(ctx)

	ticker := time.NewTicker(v.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			v.logger.Info("Validation worker stopping")
			return
		case <-ticker.C:
			v.check(ctx)
		}
	}
}

func (v *Validator) check(ctx context.Context) {
	comp, rolled, err := v.comps.Validate(ctx, nil, false)
	if err != nil {
		v.logger.Error("Competition validation failed", zap.Error(err))
		return
	}
	if rolled {
		if v.metrics != nil {
			v.metrics.CompRollovers.Add(ctx, 1)
		}
		v.logger.Info("Scheduled rollover created new competition",
			zap.Int("comp_number", comp.Number))
	}
}
