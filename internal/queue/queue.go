// Package queue runs follow-up work for cross-store consistency on asynq:
// re-attempting remote media deletes and purging orphaned image records.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Task types.
const (
	TypeMediaDelete = "media:delete"
	TypeImagePurge  = "image:purge"
)

// QueueName is the asynq queue all gallery tasks use.
const QueueName = "gallery"

// MediaDeletePayload asks the worker to remove a remote object.
type MediaDeletePayload struct {
	TaskID   string `json:"task_id"`
	PublicID string `json:"public_id"`
}

// ImagePurgePayload asks the worker to remove an image record whose remote
// object is already gone.
type ImagePurgePayload struct {
	TaskID  string `json:"task_id"`
	ImageID int64  `json:"image_id"`
}

// Enqueuer schedules follow-up tasks.
type Enqueuer interface {
	EnqueueMediaDelete(ctx context.Context, publicID string) (string, error)
	EnqueueImagePurge(ctx context.Context, imageID int64) (string, error)
	Ping(ctx context.Context) error
	Close() error
}

// RedisConfig addresses the Redis instance backing the queue.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func (c RedisConfig) clientOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.Addr, Password: c.Password, DB: c.DB}
}

// Client enqueues tasks on asynq and records their state in Redis.
type Client struct {
	asynq  *asynq.Client
	redis  *redis.Client
	logger *slog.Logger
}

// NewClient connects to Redis. It does not fail if Redis is down; use Ping.
func NewClient(cfg RedisConfig, logger *slog.Logger) *Client {
	return &Client{
		asynq: asynq.NewClient(cfg.clientOpt()),
		redis: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		logger: logger,
	}
}

func (c *Client) EnqueueMediaDelete(ctx context.Context, publicID string) (string, error) {
	taskID := uuid.NewString()
	return taskID, c.enqueue(ctx, TypeMediaDelete, taskID, MediaDeletePayload{TaskID: taskID, PublicID: publicID},
		asynq.MaxRetry(5), asynq.Timeout(2*time.Minute))
}

func (c *Client) EnqueueImagePurge(ctx context.Context, imageID int64) (string, error) {
	taskID := uuid.NewString()
	return taskID, c.enqueue(ctx, TypeImagePurge, taskID, ImagePurgePayload{TaskID: taskID, ImageID: imageID},
		asynq.MaxRetry(10), asynq.Timeout(time.Minute))
}

func (c *Client) enqueue(ctx context.Context, typ, taskID string, payload any, opts ...asynq.Option) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", typ, err)
	}

	opts = append(opts, asynq.Queue(QueueName), asynq.TaskID(taskID))
	if _, err := c.asynq.EnqueueContext(ctx, asynq.NewTask(typ, b), opts...); err != nil {
		return fmt.Errorf("enqueue %s: %w", typ, err)
	}

	setTaskState(ctx, c.redis, c.logger, taskID, StatusPending, map[string]any{"type": typ})
	return nil
}

// TaskState returns the recorded state of a task.
func (c *Client) TaskState(ctx context.Context, taskID string) (TaskStatus, bool) {
	return getTaskState(ctx, c.redis, taskID)
}

// Ping checks Redis connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.redis.Ping(ctx).Err()
}

func (c *Client) Close() error {
	err := c.asynq.Close()
	if rerr := c.redis.Close(); err == nil {
		err = rerr
	}
	return err
}

// Noop logs instead of enqueueing. Used when Redis is not configured.
type Noop struct {
	Logger *slog.Logger
}

func (n Noop) EnqueueMediaDelete(_ context.Context, publicID string) (string, error) {
	n.Logger.Warn("task queue disabled, media delete not scheduled", "public_id", publicID)
	return "", nil
}

func (n Noop) EnqueueImagePurge(_ context.Context, imageID int64) (string, error) {
	n.Logger.Warn("task queue disabled, image purge not scheduled", "image_id", imageID)
	return "", nil
}

func (Noop) Ping(context.Context) error { return nil }
func (Noop) Close() error               { return nil }
