package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stitchline/stitchline-erp/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// MastersWarmer refills the master list cache and reports how many lists it loaded.
type MastersWarmer interface {
	Warm(ctx context.Context) (int, error)
}

// MastersWarmupJob handles TaskMastersWarm.
type MastersWarmupJob struct {
	Masters MastersWarmer
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewMastersWarmupJob wires dependencies for the warmup handler.
func NewMastersWarmupJob(masters MastersWarmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *MastersWarmupJob {
	return &MastersWarmupJob{Masters: masters, Logger: logger, Metrics: metrics}
}

// Handle processes masters warmup tasks.
func (j *MastersWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Masters == nil {
		return errors.New("masters warmup: handler not configured")
	}
	var payload MastersWarmPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	metrics := j.Metrics
	if metrics == nil {
		metrics = defaultJobMetrics
	}
	tracker := metrics.Track(TaskMastersWarm)
	logger := loggerFor(j.Logger, TaskMastersWarm).With(slog.String("reason", payload.Reason))

	start := time.Now()
	warmed, err := j.Masters.Warm(ctx)
	tracker.Items(warmed)
	if err != nil {
		logger.Error("masters warmup", slog.Int("lists", warmed), slog.Any("error", err))
		return tracker.End(err)
	}
	logger.Info("completed masters warmup", slog.Int("lists", warmed), slog.Duration("duration", time.Since(start)))
	return tracker.End(nil)
}

func loggerFor(logger *slog.Logger, job string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(slog.String("job", job))
}
