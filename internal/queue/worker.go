package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/galleryapp/gallery-server/internal/media"
)

// ImagePurger removes an image record. Removing a missing record succeeds.
type ImagePurger interface {
	PurgeImage(ctx context.Context, imageID int64) error
}

// Worker processes gallery tasks.
type Worker struct {
	server *asynq.Server
	redis  *redis.Client
	media  media.Store
	purger ImagePurger
	logger *slog.Logger
}

// NewWorker creates a worker. Call Start to begin processing.
func NewWorker(cfg RedisConfig, concurrency int, mediaStore media.Store, purger ImagePurger, logger *slog.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 2
	}
	srv := asynq.NewServer(cfg.clientOpt(), asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueueName: 1},
		Logger:      &asynqLogger{logger: logger},
	})
	return &Worker{
		server: srv,
		redis: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		media:  mediaStore,
		purger: purger,
		logger: logger,
	}
}

// Mux returns the task routing for this worker.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMediaDelete, w.processMediaDelete)
	mux.HandleFunc(TypeImagePurge, w.processImagePurge)
	return mux
}

// Start begins processing in background goroutines.
func (w *Worker) Start() error {
	if err := w.server.Start(w.Mux()); err != nil {
		return fmt.Errorf("start queue worker: %w", err)
	}
	w.logger.Info("queue worker started", "queue", QueueName)
	return nil
}

// Shutdown waits for in-flight tasks and stops the worker.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
	_ = w.redis.Close()
	w.logger.Info("queue worker stopped")
}

func (w *Worker) processMediaDelete(ctx context.Context, t *asynq.Task) error {
	var p MediaDeletePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	setTaskState(ctx, w.redis, w.logger, p.TaskID, StatusProgress, nil)

	result, err := w.media.Delete(ctx, p.PublicID)
	if errors.Is(err, media.ErrNotConfigured) {
		setTaskState(ctx, w.redis, w.logger, p.TaskID, StatusFailure, map[string]any{"message": err.Error()})
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		setTaskState(ctx, w.redis, w.logger, p.TaskID, StatusFailure, map[string]any{"message": err.Error()})
		return err
	}
	if result != media.ResultOK && result != media.ResultNotFound {
		setTaskState(ctx, w.redis, w.logger, p.TaskID, StatusFailure, map[string]any{"result": result})
		return fmt.Errorf("media delete %s: %s", p.PublicID, result)
	}

	setTaskState(ctx, w.redis, w.logger, p.TaskID, StatusSuccess, map[string]any{"result": result})
	return nil
}

func (w *Worker) processImagePurge(ctx context.Context, t *asynq.Task) error {
	var p ImagePurgePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %v: %w", err, asynq.SkipRetry)
	}
	setTaskState(ctx, w.redis, w.logger, p.TaskID, StatusProgress, nil)

	if err := w.purger.PurgeImage(ctx, p.ImageID); err != nil {
		setTaskState(ctx, w.redis, w.logger, p.TaskID, StatusFailure, map[string]any{"message": err.Error()})
		return err
	}

	setTaskState(ctx, w.redis, w.logger, p.TaskID, StatusSuccess, map[string]any{"image_id": p.ImageID})
	return nil
}

// asynqLogger adapts slog to asynq.Logger.
type asynqLogger struct {
	logger *slog.Logger
}

func (l *asynqLogger) Debug(args ...any) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...any)  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...any)  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...any) { l.logger.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...any) { l.logger.Error(fmt.Sprint(args...)) }
