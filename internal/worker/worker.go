package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/snapcrew/capture-market/internal/worker/domain"
	"github.com/snapcrew/capture-market/internal/worker/storage"
	"github.com/snapcrew/capture-market/shared/postgresql"
	"github.com/snapcrew/capture-market/shared/rabbitmq"
)

// Config holds worker configuration
type Config struct {
	Logger         *slog.Logger
	DBClient       *postgresql.Client
	RabbitClient   *rabbitmq.Client
	QueueName      string
	Concurrency    int
	PrefetchCount  int
	ReaperInterval time.Duration
	TokenRetention time.Duration
}

// Worker consumes lifecycle events into the audit trail and sweeps
// expired claim tokens on a schedule.
type Worker struct {
	workerID       string
	logger         *slog.Logger
	dbClient       *postgresql.Client
	rabbitClient   *rabbitmq.Client
	storage        *storage.Storage
	queueName      string
	concurrency    int
	prefetchCount  int
	reaperInterval time.Duration
	tokenRetention time.Duration
	eventsChan     chan *domain.EventMessage
	wg             sync.WaitGroup
	stopChan       chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		workerID:       fmt.Sprintf("worker-%s", uuid.New().String()[:8]),
		logger:         cfg.Logger,
		dbClient:       cfg.DBClient,
		rabbitClient:   cfg.RabbitClient,
		storage:        storage.NewStorage(cfg.DBClient.GetDB(), cfg.Logger),
		queueName:      cfg.QueueName,
		concurrency:    cfg.Concurrency,
		prefetchCount:  cfg.PrefetchCount,
		reaperInterval: cfg.ReaperInterval,
		tokenRetention: cfg.TokenRetention,
		eventsChan:     make(chan *domain.EventMessage),
		stopChan:       make(chan struct{}),
	}
}

// Start begins consuming events and runs until the context is canceled
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
		slog.Duration("reaper_interval", w.reaperInterval),
	)

	deliveries, err := w.setupConsumer(ctx)
	if err != nil {
		return fmt.Errorf("failed to setup consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	w.wg.Add(1)
	go w.runTokenReaper(ctx)

	w.startMessageDispatcher(ctx, deliveries)

	return nil
}

// Stop gracefully stops the worker
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...",
		slog.String("worker_id", w.workerID),
	)
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
