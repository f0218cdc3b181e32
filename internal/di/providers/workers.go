package providers

import (
	"context"
	"time"

	"github.com/samber/do/v2"

	"github.com/galleryapp/gallery-server/internal/config"
	"github.com/galleryapp/gallery-server/internal/events"
	"github.com/galleryapp/gallery-server/internal/logger"
	"github.com/galleryapp/gallery-server/internal/queue"
	"github.com/galleryapp/gallery-server/internal/service"
)

// EventEmitterHandle wraps the event emitter with shutdown capability.
type EventEmitterHandle struct {
	events.Emitter
}

// Shutdown implements do.Shutdownable.
func (h *EventEmitterHandle) Shutdown() error {
	return h.Close()
}

// ProvideEventEmitter publishes gallery events to Kafka when brokers are
// configured, and only logs them otherwise.
func ProvideEventEmitter(i do.Injector) (*EventEmitterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if len(cfg.Kafka.Brokers) == 0 {
		return &EventEmitterHandle{Emitter: events.Noop{Logger: log.Logger}}, nil
	}

	log.Info("Publishing events to Kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	return &EventEmitterHandle{Emitter: events.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic, log.Logger)}, nil
}

// QueueClientHandle wraps the task queue client. Configured is false when
// REDIS_ADDR is empty and tasks are only logged.
type QueueClientHandle struct {
	queue.Enqueuer
	Configured bool
}

// Shutdown implements do.Shutdownable.
func (h *QueueClientHandle) Shutdown() error {
	return h.Close()
}

// ProvideQueueClient provides the asynq client used for deferred retries.
func ProvideQueueClient(i do.Injector) (*QueueClientHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Redis.Addr == "" {
		log.Info("Task queue disabled; failed media deletes will not be retried")
		return &QueueClientHandle{Enqueuer: queue.Noop{Logger: log.Logger}}, nil
	}

	client := queue.NewClient(queue.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, log.Logger)

	if err := client.Ping(context.Background()); err != nil {
		log.Warn("Task queue unreachable; tasks will fail until Redis is up", "addr", cfg.Redis.Addr, "error", err)
	}

	return &QueueClientHandle{Enqueuer: client, Configured: true}, nil
}

// QueueWorkerHandle wraps the task worker with shutdown capability.
type QueueWorkerHandle struct {
	*queue.Worker
}

// Shutdown implements do.Shutdownable.
func (h *QueueWorkerHandle) Shutdown() error {
	if h.Worker != nil {
		h.Worker.Shutdown()
	}
	return nil
}

// ProvideQueueWorker starts the worker retrying media deletes and image
// purges. It does nothing without Redis.
func ProvideQueueWorker(i do.Injector) (*QueueWorkerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	mediaHandle := do.MustInvoke[*MediaHandle](i)
	galleryService := do.MustInvoke[*service.GalleryService](i)

	if cfg.Redis.Addr == "" {
		return &QueueWorkerHandle{}, nil
	}

	worker := queue.NewWorker(queue.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Redis.Concurrency, mediaHandle.Store, galleryService, log.Logger)

	if err := worker.Start(); err != nil {
		return nil, err
	}

	return &QueueWorkerHandle{Worker: worker}, nil
}

// SessionCleanupJob runs periodic session cleanup.
type SessionCleanupJob struct {
	cancel context.CancelFunc
}

// Shutdown implements do.Shutdownable.
func (j *SessionCleanupJob) Shutdown() error {
	j.cancel()
	return nil
}

// ProvideSessionCleanupJob provides the periodic session cleanup job.
func ProvideSessionCleanupJob(i do.Injector) (*SessionCleanupJob, error) {
	authService := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(sessionCleanupInterval)
		defer ticker.Stop()

		// Initial cleanup on startup
		if count, err := authService.CleanupExpiredSessions(ctx); err != nil {
			log.Warn("Initial session cleanup failed", "error", err)
		} else if count > 0 {
			log.Info("Initial session cleanup completed", "deleted", count)
		}

		for {
			select {
			case <-ticker.C:
				if count, err := authService.CleanupExpiredSessions(ctx); err != nil {
					log.Warn("Session cleanup failed", "error", err)
				} else if count > 0 {
					log.Info("Session cleanup completed", "deleted", count)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	log.Info("Session cleanup job started")

	return &SessionCleanupJob{cancel: cancel}, nil
}
