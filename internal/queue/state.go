package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Task states recorded in Redis.
const (
	StatusPending  = "PENDING"
	StatusProgress = "PROGRESS"
	StatusSuccess  = "SUCCESS"
	StatusFailure  = "FAILURE"
)

const (
	taskMetaPrefix = "gallery:task:"
	taskStateTTL   = 7 * 24 * time.Hour
)

// TaskStatus is the record stored for each task.
type TaskStatus struct {
	Status    string `json:"status"`
	Result    any    `json:"result,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// setTaskState records status for taskID. rdb may be nil, in which case only
// the log line is written.
func setTaskState(ctx context.Context, rdb *redis.Client, logger *slog.Logger, taskID, status string, result any) {
	if rdb != nil {
		rec := TaskStatus{Status: status, Result: result, UpdatedAt: time.Now().UTC().Format(time.RFC3339)}
		b, _ := json.Marshal(rec)
		if err := rdb.Set(ctx, taskMetaPrefix+taskID, b, taskStateTTL).Err(); err != nil {
			logger.Error("failed to persist task state", "task_id", taskID, "status", status, "error", err)
		}
	}

	attrs := []any{"task_id", taskID, "status", status}
	switch status {
	case StatusFailure:
		logger.Error("task state updated", attrs...)
	case StatusProgress, StatusPending:
		logger.Debug("task state updated", attrs...)
	default:
		logger.Info("task state updated", attrs...)
	}
}

func getTaskState(ctx context.Context, rdb *redis.Client, taskID string) (TaskStatus, bool) {
	if rdb == nil {
		return TaskStatus{}, false
	}
	raw, err := rdb.Get(ctx, taskMetaPrefix+taskID).Result()
	if err != nil || raw == "" {
		return TaskStatus{}, false
	}
	var rec TaskStatus
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return TaskStatus{}, false
	}
	return rec, true
}
