// Package jobs holds the background task definitions and the Asynq
// worker plumbing shared by the API and worker binaries.
package jobs

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRecyclePurge empties the recycle bin past retention.
	TaskRecyclePurge = "recycle:purge"
	// TaskIdempotencyCleanup drops stale acceptance keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// Purger empties the recycle bin. Implemented by the recycle service.
type Purger interface {
	Purge(ctx context.Context) (int64, int64, error)
}

// KeyCleaner drops processed idempotency keys older than a window.
// Implemented by the shared idempotency store.
type KeyCleaner interface {
	Cleanup(ctx context.Context, olderThan time.Duration) error
}

// NewRecyclePurgeTask constructs the purge task. It carries no payload;
// the retention window lives in the service.
func NewRecyclePurgeTask() *asynq.Task {
	return asynq.NewTask(TaskRecyclePurge, nil)
}

// IdempotencyCleanupPayload parameterizes the key cleanup window.
type IdempotencyCleanupPayload struct {
	OlderThanHours int `json:"older_than_hours"`
}

// NewIdempotencyCleanupTask constructs the cleanup task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}

// HandleRecyclePurge returns the handler for TaskRecyclePurge.
func HandleRecyclePurge(purger Purger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		_, _, err := purger.Purge(ctx)
		return err
	}
}

// HandleIdempotencyCleanup returns the handler for TaskIdempotencyCleanup.
func HandleIdempotencyCleanup(cleaner KeyCleaner) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload IdempotencyCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.OlderThanHours <= 0 {
			payload.OlderThanHours = 24 * 30
		}
		return cleaner.Cleanup(ctx, time.Duration(payload.OlderThanHours)*time.Hour)
	}
}
