// Package queue forwards outbox messages to an asynq queue for delivery by
// the worker process.
package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"waterdist/internal/core/domain/model/outbox"
	"waterdist/internal/core/ports"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const DefaultQueue = "outbox"

// Config holds the asynq redis connection and worker settings.
type Config struct {
	Enabled     bool   `mapstructure:"enabled"`
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	Password    string `mapstructure:"password"`
	DB          int    `mapstructure:"db"`
	Concurrency int    `mapstructure:"concurrency"`
	Queue       string `mapstructure:"queue"`
	MaxRetry    int    `mapstructure:"max_retry"`
}

func (c Config) queueName() string {
	if strings.TrimSpace(c.Queue) == "" {
		return DefaultQueue
	}
	return c.Queue
}

// Enqueuer is the subset of *asynq.Client used by Sink.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

var _ ports.OutboxSink = (*Sink)(nil)

// Sink hands messages to asynq. The task id is the message id, so a message
// re-claimed after an expired lease is not queued twice.
type Sink struct {
	client Enqueuer
	queue  string
	opts   []asynq.Option
	log    *zap.SugaredLogger
}

func NewSink(client Enqueuer, cfg Config, log *zap.SugaredLogger) *Sink {
	opts := []asynq.Option{asynq.Queue(cfg.queueName())}
	if cfg.MaxRetry > 0 {
		opts = append(opts, asynq.MaxRetry(cfg.MaxRetry))
	}
	return &Sink{
		client: client,
		queue:  cfg.queueName(),
		opts:   opts,
		log:    log.With("component", "queue_sink"),
	}
}

// NewClient opens an asynq client for cfg.
func NewClient(cfg Config) *asynq.Client {
	return asynq.NewClient(RedisOpt(cfg))
}

func (s *Sink) Deliver(ctx context.Context, message *outbox.Message) error {
	task, err := NewDeliverTask(message)
	if err != nil {
		return err
	}

	opts := append([]asynq.Option{asynq.TaskID(message.ID().String())}, s.opts...)
	info, err := s.client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		s.log.Debugw("outbox_task_already_queued", "message_id", message.ID().String())
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue outbox message %s: %w", message.ID(), err)
	}

	s.log.Debugw("outbox_task_enqueued", "message_id", message.ID().String(), "queue", info.Queue)
	return nil
}

// RedisOpt builds the asynq connection options, defaulting to 127.0.0.1:6379.
func RedisOpt(cfg Config) asynq.RedisClientOpt {
	host := "127.0.0.1"
	port := 6379
	if strings.TrimSpace(cfg.Host) != "" {
		host = strings.TrimSpace(cfg.Host)
	}
	if cfg.Port > 0 {
		port = cfg.Port
	}
	return asynq.RedisClientOpt{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

// ServerConfig builds the asynq server settings for the worker.
func ServerConfig(cfg Config) asynq.Config {
	concurrency := 10
	if cfg.Concurrency > 0 {
		concurrency = cfg.Concurrency
	}
	return asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{cfg.queueName(): 1},
	}
}
