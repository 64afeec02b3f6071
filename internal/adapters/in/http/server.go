// Package http exposes the dispatch API over echo: the shop webhook, the
// distributor order actions and the operator listings.
package http

import (
	"context"
	"net/http"
	"time"

	"waterdist/internal/core/application/usecases/commands"
	"waterdist/internal/core/application/usecases/queries"
	"waterdist/internal/core/domain/model/assignment"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

// Config holds the listener and credential settings of the API.
type Config struct {
	Port          int    `mapstructure:"port"`
	JWTSecret     string `mapstructure:"jwt_secret"`
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type IngestOrderHandler interface {
	Handle(ctx context.Context, cmd commands.IngestOrderCommand) (commands.IngestResult, error)
}

type AcceptOrderHandler interface {
	Handle(ctx context.Context, cmd commands.AcceptOrderCommand) error
}

type RejectOrderHandler interface {
	Handle(ctx context.Context, cmd commands.RejectOrderCommand) error
}

type AdvanceOrderHandler interface {
	Handle(ctx context.Context, cmd commands.AdvanceOrderCommand) (commands.AdvanceResult, error)
}

type AssignOrderHandler interface {
	Handle(ctx context.Context, cmd commands.AssignOrderCommand) (*assignment.Assignment, error)
}

type RequestInvoiceHandler interface {
	Handle(ctx context.Context, cmd commands.RequestInvoiceCommand) error
}

type ListOrdersHandler interface {
	Handle(ctx context.Context, query queries.ListOrdersQuery) ([]queries.ListOrdersQueryResponse, error)
}

type ListDistributorsHandler interface {
	Handle(ctx context.Context, query queries.ListDistributorsQuery) ([]queries.ListDistributorsQueryResponse, error)
}

// Handlers groups the use cases served by the API.
type Handlers struct {
	Ingest           IngestOrderHandler
	Accept           AcceptOrderHandler
	Reject           RejectOrderHandler
	Advance          AdvanceOrderHandler
	Assign           AssignOrderHandler
	RequestInvoice   RequestInvoiceHandler
	ListOrders       ListOrdersHandler
	ListDistributors ListDistributorsHandler
}

// Server binds the use cases to routes.
type Server struct {
	handlers Handlers
	auth     *Authenticator
	webhook  *WebhookVerifier
	log      *zap.SugaredLogger
}

func NewServer(handlers Handlers, cfg Config, log *zap.SugaredLogger) *Server {
	return &Server{
		handlers: handlers,
		auth:     NewAuthenticator(cfg.JWTSecret),
		webhook:  NewWebhookVerifier(cfg.WebhookSecret),
		log:      log.With("component", "http"),
	}
}

// NewEcho returns an echo instance with the error handler, request logging
// and all routes installed.
func (s *Server) NewEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = s.handleError
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.requestLogger())
	s.Register(e)
	return e
}

// Register installs the routes on e.
func (s *Server) Register(e *echo.Echo) {
	e.GET("/health", s.Health)

	api := e.Group("/api")
	api.POST("/webhook/orders", s.IngestOrder)

	secured := api.Group("", s.auth.Middleware())
	secured.GET("/orders", s.ListOrders)
	secured.POST("/orders/:id/accept", s.AcceptOrder)
	secured.POST("/orders/:id/reject", s.RejectOrder)
	secured.PATCH("/orders/:id/status", s.AdvanceOrder)
	secured.POST("/orders/:id/assign", s.AssignOrder)
	secured.POST("/orders/:id/invoice", s.RequestInvoice)
	secured.GET("/distributors", s.ListDistributors)
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				s.log.Warnw("http_request_failed", append(fields, "error", v.Error)...)
				return nil
			}
			s.log.Debugw("http_request", fields...)
			return nil
		},
	})
}

// Shutdown stops e, waiting up to timeout for in-flight requests.
func Shutdown(e *echo.Echo, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.Shutdown(ctx)
}
