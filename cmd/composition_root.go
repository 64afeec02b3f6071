package cmd

import (
	"errors"
	"fmt"

	apihttp "waterdist/internal/adapters/in/http"
	"waterdist/internal/adapters/in/worker"
	"waterdist/internal/adapters/out/geo"
	"waterdist/internal/adapters/out/invoice"
	"waterdist/internal/adapters/out/mail"
	"waterdist/internal/adapters/out/notification"
	"waterdist/internal/adapters/out/postgres"
	"waterdist/internal/adapters/out/postgres/distributorrepo"
	"waterdist/internal/adapters/out/postgres/invoicerepo"
	"waterdist/internal/adapters/out/queue"
	"waterdist/internal/adapters/out/sink"
	"waterdist/internal/core/application/access"
	"waterdist/internal/core/application/usecases/commands"
	"waterdist/internal/core/application/usecases/queries"
	"waterdist/internal/core/domain/model/outbox"
	"waterdist/internal/core/ports"
	"waterdist/internal/jobs"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CompositionRoot owns the long-lived dependencies and builds handlers on
// demand.
type CompositionRoot struct {
	cfg    Config
	gormDB *gorm.DB
	log    *zap.SugaredLogger

	uowFactory *postgres.GormUnitOfWorkFactory
	policy     access.Policy
	geo        ports.GeoService
	redis      *redis.Client
	queue      *asynq.Client
	engine     *commands.AssignmentEngine
}

func NewCompositionRoot(cfg Config, gormDB *gorm.DB, log *zap.SugaredLogger) (*CompositionRoot, error) {
	policy, err := access.NewPolicy(cfg.Access.Policy)
	if err != nil {
		return nil, err
	}

	c := &CompositionRoot{
		cfg:        cfg,
		gormDB:     gormDB,
		log:        log,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB).WithLogger(log),
		policy:     policy,
	}

	if cfg.Redis.Enabled {
		c.redis = redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	if c.geo, err = geo.New(cfg.Geo, c.redis, log); err != nil {
		return nil, errors.Join(err, c.Close())
	}

	if cfg.Queue.Enabled {
		c.queue = queue.NewClient(cfg.Queue)
	}

	c.engine = commands.NewAssignmentEngine(
		c.uowFactoryFunc(),
		distributorrepo.NewGormDistributorDirectory(gormDB),
		c.geo,
		commands.EngineConfig{
			GeoTimeout:        cfg.Assignment.GeoTimeout,
			MaxParallel:       cfg.Assignment.MaxParallel,
			MaxCommitAttempts: cfg.Assignment.MaxCommitAttempts,
		},
		log,
	)

	return c, nil
}

// Close releases the redis and queue connections.
func (c *CompositionRoot) Close() error {
	var errs []error
	if c.queue != nil {
		errs = append(errs, c.queue.Close())
	}
	if c.redis != nil {
		errs = append(errs, c.redis.Close())
	}
	return errors.Join(errs...)
}

func (c *CompositionRoot) uowFactoryFunc() commands.UoWFactory {
	return commands.UoWFactoryFunc(func() commands.UoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) outboxUoWFactoryFunc() commands.OutboxUoWFactory {
	return commands.OutboxUoWFactoryFunc(func() commands.OutboxUoW {
		return c.uowFactory.Create()
	})
}

func (c *CompositionRoot) CreateIngestOrderCommandHandler() *commands.IngestOrderCommandHandler {
	return commands.NewIngestOrderCommandHandler(c.uowFactoryFunc(), c.geo, c.engine, c.cfg.Assignment.GeoTimeout, c.log)
}

func (c *CompositionRoot) CreateAssignOrderCommandHandler() *commands.AssignOrderCommandHandler {
	return commands.NewAssignOrderCommandHandler(
		c.uowFactoryFunc(), c.geo, c.engine, c.policy, c.cfg.Assignment.GeoTimeout, c.log)
}

func (c *CompositionRoot) CreateAcceptOrderCommandHandler() *commands.AcceptOrderCommandHandler {
	return commands.NewAcceptOrderCommandHandler(c.uowFactoryFunc(), c.policy, c.log)
}

func (c *CompositionRoot) CreateRejectOrderCommandHandler() *commands.RejectOrderCommandHandler {
	return commands.NewRejectOrderCommandHandler(c.uowFactoryFunc(), c.policy, c.log)
}

func (c *CompositionRoot) CreateAdvanceOrderCommandHandler() *commands.AdvanceOrderCommandHandler {
	return commands.NewAdvanceOrderCommandHandler(c.uowFactoryFunc(), c.policy, c.log)
}

func (c *CompositionRoot) CreateRequestInvoiceCommandHandler() *commands.RequestInvoiceCommandHandler {
	return commands.NewRequestInvoiceCommandHandler(c.uowFactoryFunc(), c.policy, c.log)
}

func (c *CompositionRoot) CreateListOrdersQueryHandler() queries.ListOrdersQueryHandler {
	return queries.NewListOrdersQueryHandler(c.gormDB, c.policy)
}

func (c *CompositionRoot) CreateListDistributorsQueryHandler() queries.ListDistributorsQueryHandler {
	return queries.NewListDistributorsQueryHandler(c.gormDB)
}

// CreatePortSink delivers outbox messages in-process, by e-mail when mail is
// enabled and to the log otherwise.
func (c *CompositionRoot) CreatePortSink() *sink.PortSink {
	lookup := notification.NewUnitOfWorkLookup(c.uowFactory)

	var notifier ports.NotificationPort = notification.NewLogNotifier(c.log)
	var sender mail.Sender
	if c.cfg.Mail.Enabled {
		smtp := mail.NewSMTPMailer(c.cfg.Mail)
		sender = smtp
		notifier = notification.NewEmailNotifier(smtp, lookup, c.log)
	}

	invoices := invoice.NewGenerator(c.cfg.Invoice, lookup, invoicerepo.NewGormInvoiceRepository(c.gormDB), sender, c.log)
	return sink.NewPortSink(notifier, invoices, c.log)
}

// CreateOutboxSink forwards to asynq when the queue is enabled and delivers
// in-process otherwise.
func (c *CompositionRoot) CreateOutboxSink() ports.OutboxSink {
	if c.queue != nil {
		return queue.NewSink(c.queue, c.cfg.Queue, c.log)
	}
	return c.CreatePortSink()
}

func (c *CompositionRoot) CreateDispatchOutboxCommandHandler() *commands.DispatchOutboxCommandHandler {
	return commands.NewDispatchOutboxCommandHandler(c.outboxUoWFactoryFunc(), c.CreateOutboxSink(), commands.DispatchConfig{
		Lease: c.cfg.Outbox.Lease,
		Retry: outbox.RetryPolicy{
			BaseDelay:   c.cfg.Outbox.RetryBase,
			MaxDelay:    c.cfg.Outbox.RetryMax,
			MaxAttempts: c.cfg.Outbox.MaxAttempts,
		},
	}, c.log)
}

func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	cmd, err := commands.NewDispatchOutboxCommand(c.cfg.Outbox.BatchSize)
	if err != nil {
		return nil, err
	}
	job := jobs.NewOutboxDispatchJob(
		c.CreateDispatchOutboxCommandHandler(), cmd, c.cfg.Outbox.Schedule, c.cfg.Outbox.RunTimeout, c.log)
	return jobs.NewJobManager(job), nil
}

// CreateWorker returns the asynq worker, or nil when the queue is disabled.
func (c *CompositionRoot) CreateWorker() *worker.Service {
	if !c.cfg.Queue.Enabled {
		return nil
	}
	return worker.NewService(c.cfg.Queue, worker.NewConsumer(c.CreatePortSink(), c.log), c.log)
}

func (c *CompositionRoot) CreateHTTPServer() *apihttp.Server {
	return apihttp.NewServer(apihttp.Handlers{
		Ingest:           c.CreateIngestOrderCommandHandler(),
		Accept:           c.CreateAcceptOrderCommandHandler(),
		Reject:           c.CreateRejectOrderCommandHandler(),
		Advance:          c.CreateAdvanceOrderCommandHandler(),
		Assign:           c.CreateAssignOrderCommandHandler(),
		RequestInvoice:   c.CreateRequestInvoiceCommandHandler(),
		ListOrders:       c.CreateListOrdersQueryHandler(),
		ListDistributors: c.CreateListDistributorsQueryHandler(),
	}, c.cfg.HTTP, c.log)
}
