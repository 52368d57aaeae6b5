package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMastersWarm refills the master list cache.
	TaskMastersWarm = "masters:warm"
	// TaskIdempotencyCleanup drops stale Idempotency-Key records.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// MastersWarmPayload describes why a warmup was requested.
type MastersWarmPayload struct {
	Reason string `json:"reason"`
}

// NewMastersWarmTask constructs a masters warmup task.
func NewMastersWarmTask(reason string) (*asynq.Task, error) {
	data, err := json.Marshal(MastersWarmPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMastersWarm, data), nil
}

// IdempotencyCleanupPayload configures key retention.
type IdempotencyCleanupPayload struct {
	RetentionHours int `json:"retention_hours"`
}

// Retention returns the configured retention, defaulting to seven days.
func (p IdempotencyCleanupPayload) Retention() time.Duration {
	if p.RetentionHours <= 0 {
		return 7 * 24 * time.Hour
	}
	return time.Duration(p.RetentionHours) * time.Hour
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(retentionHours int) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{RetentionHours: retentionHours})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
