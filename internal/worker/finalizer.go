// Package worker runs the background jobs of the comp lifecycle:
// asynchronous submission finalization and the periodic comp validation.
package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/cubecomp/backend/internal/domain"
	"github.com/cubecomp/backend/internal/infrastructure"
	"github.com/cubecomp/backend/internal/service"
)

// FinalizeTask pins a finished round to the comp it was played in, so a
// rollover between enqueue and processing cannot shift the submission.
type FinalizeTask struct {
	CompNumber int
	EventID    string
	UserID     int64
	Attempts   []domain.Attempt
}

const (
	queueSize    = 256
	maxTries     = 3
	retryBackoff = 2 * time.Second
)

// Finalizer turns finished rounds into stored submissions off the request
// path. Failed finalizations are retried; duplicates are already swallowed
// by the service, so a retry after a half-failed write stays harmless.
type Finalizer struct {
	comps   *service.CompetitionService
	metrics *infrastructure.TelemetryMetrics
	logger  *zap.Logger
	tasks   chan FinalizeTask
}

// NewFinalizer creates a new finalizer worker
func NewFinalizer(comps *service.CompetitionService, metrics *infrastructure.TelemetryMetrics, logger *zap.Logger) *Finalizer {
	return &Finalizer{
		comps:   comps,
		metrics: metrics,
		logger:  logger,
		tasks:   make(chan FinalizeTask, queueSize),
	}
}

// Enqueue hands a finished round to the worker. It never blocks the request
// path: when the queue is full the task is dropped and logged.
func (f *Finalizer) Enqueue(task FinalizeTask) bool {
	select {
	case f.tasks <- task:
		return true
	default:
		f.logger.Error("Finalize queue full, dropping task",
			zap.Int("comp_number", task.CompNumber),
			zap.String("event_id", task.EventID),
			zap.Int64("user_id", task.UserID),
		)
		return false
	}
}

// Run processes tasks until the context is canceled.
func (f *Finalizer) Run(ctx context.Context) {
	f.logger.Info("Finalizer worker started")
	for {
		select {
		case <-ctx.Done():
			f.logger.Info("Finalizer worker stopping")
			return
		case task := <-f.tasks:
			f.process(ctx, task)
		}
	}
}

func (f *Finalizer) process(ctx context.Context, task FinalizeTask) {
	var err error
	for try := 1; try <= maxTries; try++ {
		err = f.comps.FinalizeSubmission(ctx, task.CompNumber, task.EventID, task.UserID, task.Attempts)
		if err == nil {
			if f.metrics != nil {
				f.metrics.SubmissionsFinalized.Add(ctx, 1)
			}
			return
		}
		if errors.Is(err, domain.ErrEventNotFound) {
			break
		}

		f.logger.Warn("Finalize attempt failed",
			zap.Int("try", try),
			zap.Int("comp_number", task.CompNumber),
			zap.String("event_id", task.EventID),
			zap.Int64("user_id", task.UserID),
			zap.Error(err),
		)
		if try < maxTries {
			select {
			case <-ctx.Done():
				return
			case <-time.After(retryBackoff * time.Duration(try)):
			}
		}
	}

	f.logger.Error("Giving up on submission finalization",
		zap.Int("comp_number", task.CompNumber),
		zap.String("event_id", task.EventID),
		zap.Int64("user_id", task.UserID),
		zap.Error(err),
	)
}
