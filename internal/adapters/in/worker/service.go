package worker

import (
	"waterdist/internal/adapters/out/queue"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Service runs the asynq server.
type Service struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

func NewService(cfg queue.Config, consumer *Consumer, log *zap.SugaredLogger) *Service {
	serverCfg := queue.ServerConfig(cfg)
	serverCfg.Logger = asynqLogger{log: log.With("component", "asynq")}

	mux := asynq.NewServeMux()
	consumer.Register(mux)

	return &Service{
		server: asynq.NewServer(queue.RedisOpt(cfg), serverCfg),
		mux:    mux,
	}
}

// Start begins processing in the background.
func (s *Service) Start() error {
	return s.server.Start(s.mux)
}

// Stop waits for in-flight tasks and shuts the server down.
func (s *Service) Stop() {
	s.server.Shutdown()
}

// asynqLogger adapts zap to asynq.Logger.
type asynqLogger struct {
	log *zap.SugaredLogger
}

func (l asynqLogger) Debug(args ...any) { l.log.Debug(args...) }
func (l asynqLogger) Info(args ...any)  { l.log.Info(args...) }
func (l asynqLogger) Warn(args ...any)  { l.log.Warn(args...) }
func (l asynqLogger) Error(args ...any) { l.log.Error(args...) }
func (l asynqLogger) Fatal(args ...any) { l.log.Fatal(args...) }
