package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	kafka_impl "product-media-manager/internal/broker/kafka"
	"product-media-manager/internal/config"
	"product-media-manager/internal/domain"
	minio_repo "product-media-manager/internal/repository/media/cloud/minio"
	postgres_repo "product-media-manager/internal/repository/media/db/postgres"
	media_uc "product-media-manager/internal/usecase/media"
	"product-media-manager/internal/watermark"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

// Worker consumes queued watermark generation tasks and runs them through the
// same media usecase the HTTP server uses.
type Worker struct {
	cfg    *config.Config
	logger *zlog.Zerolog
	db     *dbpg.DB
	broker *kafka_impl.KafkaClient
	media  *media_uc.MediaUsecase
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
	retries := cfg.DefaultRetryStrategy()

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	mediaRepo := postgres_repo.NewMediaRepository(db, retries)
	if err := mediaRepo.InitSchema(context.Background()); err != nil {
		return nil, err
	}

	fileRepo, err := minio_repo.NewFileRepository(cfg, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	renderer := watermark.NewRenderer()

	brokerClient := kafka_impl.NewKafkaClient(cfg)

	mediaUsecase := media_uc.NewMediaUsecase(mediaRepo, fileRepo, brokerClient, renderer, logger, retries)

	return &Worker{
		cfg:    cfg,
		logger: logger,
		db:     db,
		broker: brokerClient,
		media:  mediaUsecase,
	}, nil
}

func (w *Worker) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages := make(chan kafka.Message, w.cfg.Worker.Concurrency)

	go w.broker.StartConsuming(ctx, messages, w.cfg.DefaultRetryStrategy())

	for i := 0; i < w.cfg.Worker.Concurrency; i++ {
		go w.worker(ctx, i, messages)
	}

	w.logger.Info().Int("concurrency", w.cfg.Worker.Concurrency).Msg("Worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	w.logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	cancel()

	return nil
}

func (w *Worker) worker(ctx context.Context, id int, messages <-chan kafka.Message) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Int("worker_id", id).Msg("Worker stopped")
			return
		case msg := <-messages:
			w.processMessage(ctx, id, msg)
		}
	}
}

func (w *Worker) processMessage(ctx context.Context, workerID int, msg kafka.Message) {
	var task domain.WatermarkTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		w.logger.Error().Err(err).Int("worker_id", workerID).Msg("Failed to unmarshal task")
		return
	}

	w.logger.Info().
		Int("worker_id", workerID).
		Str("task_id", task.ID).
		Int64("product_id", task.ProductID).
		Msg("Processing watermark task")

	if err := w.media.ProcessTask(ctx, task); err != nil {
		// Leave the message uncommitted so a transient failure is retried on
		// the next delivery.
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("Task failed")
		return
	}

	if err := w.broker.Commit(ctx, msg); err != nil {
		w.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to commit message")
	}

	w.logger.Info().
		Int("worker_id", workerID).
		Str("task_id", task.ID).
		Msg("Task completed")
}
