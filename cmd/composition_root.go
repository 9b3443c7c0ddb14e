package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	httpadapter "tms/internal/adapters/in/http"
	kafkain "tms/internal/adapters/in/kafka"
	natsin "tms/internal/adapters/in/nats"
	"tms/internal/adapters/out/inventory"
	kafkaout "tms/internal/adapters/out/kafka"
	"tms/internal/adapters/out/metrics"
	natsout "tms/internal/adapters/out/nats"
	"tms/internal/adapters/out/postgres"
	redisout "tms/internal/adapters/out/redis"
	"tms/internal/core/application/eventhandlers"
	"tms/internal/core/application/events"
	"tms/internal/core/application/usecases/commands"
	"tms/internal/core/application/usecases/queries"
	"tms/internal/core/domain/services"
	"tms/internal/jobs"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const clientID = "tms"

// CompositionRoot owns the connections of the service and wires every use
// case to its adapters.
type CompositionRoot struct {
	cfg    Config
	logger *zap.Logger

	gormDB     *gorm.DB
	uowFactory *postgres.GormUnitOfWorkFactory
	bus        *events.Bus

	producer *kgo.Client
	consumer *kgo.Client
	redis    *redis.Client
	nats     *nats.Conn

	create   commands.CreateTransportOrderCommandHandler
	init     commands.InitializeTransportOrdersCommandHandler
	start    commands.StartTransportOrderCommandHandler
	trigger  commands.TriggerStartCommandHandler
	next     commands.StartNextTransportOrderCommandHandler
	response commands.HandleStartResponseCommandHandler
	expire   commands.ExpireStartRequestsCommandHandler
	pending  commands.StartPendingOrdersCommandHandler
	change   commands.ChangeTransportOrderStateCommandHandler
	update   commands.UpdateTransportOrderCommandHandler
	remove   commands.RemoveTransportUnitCommandHandler

	publisher *kafkaout.Publisher
}

// NewCompositionRoot connects to Kafka, Redis and NATS and builds the use
// cases. gormDB must have been opened with TranslateError enabled.
func NewCompositionRoot(ctx context.Context, cfg Config, gormDB *gorm.DB, logger *zap.Logger) (_ *CompositionRoot, err error) {
	c := &CompositionRoot{
		cfg:        cfg,
		logger:     logger,
		gormDB:     gormDB,
		uowFactory: postgres.NewGormUnitOfWorkFactory(gormDB),
		bus:        events.NewBus(logger),
	}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	if c.producer, err = kafkaout.NewProducerClient(cfg.Kafka.Brokers, clientID); err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	if c.consumer, err = kafkain.NewConsumerClient(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.CommandTopic); err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	if c.redis, err = redisout.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		return nil, err
	}
	if c.nats, err = nats.Connect(cfg.NATS.URL, nats.Name(clientID)); err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	c.publisher, err = kafkaout.NewPublisher(c.producer, kafkaout.Topics{
		Events:     cfg.Kafka.EventTopic,
		DeadLetter: cfg.Kafka.DeadLetterTopic,
	}, logger, time.Now)
	if err != nil {
		return nil, err
	}
	locker, err := redisout.NewUnitLocker(c.redis, cfg.Redis.LeaseTTL)
	if err != nil {
		return nil, err
	}
	negotiator, err := natsout.NewStartNegotiator(c.nats, cfg.NATS.StartRequestSubject, logger)
	if err != nil {
		return nil, err
	}
	topology, err := inventory.NewClient(cfg.Inventory.BaseURL, cfg.Inventory.Timeout)
	if err != nil {
		return nil, err
	}
	mode, err := commands.ParseStartMode(cfg.Orders.StartMode)
	if err != nil {
		return nil, err
	}
	blocked, err := cfg.Orders.BlockedStates()
	if err != nil {
		return nil, err
	}

	var f commands.UoWFactory = FuncUoWFactory(func() commands.UoW {
		return c.uowFactory.Create()
	})
	chain := services.NewVoterChain(
		services.NewLocationVoter(topology, time.Now),
		services.NewLocationGroupVoter(topology, time.Now),
	)

	c.create = commands.NewCreateTransportOrderCommandHandler(f, c.bus, time.Now)
	c.init = commands.NewInitializeTransportOrdersCommandHandler(f, topology, c.bus, logger, time.Now)
	c.start = commands.NewStartTransportOrderCommandHandler(f, topology, topology, locker, c.bus, logger, time.Now)
	c.trigger = commands.NewTriggerStartCommandHandler(mode, c.start, f, negotiator, logger, time.Now)
	c.next = commands.NewStartNextTransportOrderCommandHandler(f, c.trigger, logger)
	c.response = commands.NewHandleStartResponseCommandHandler(f, c.start, logger, time.Now)
	c.expire = commands.NewExpireStartRequestsCommandHandler(f, negotiator, c.bus,
		cfg.Orders.NegotiationTimeout, cfg.Orders.NegotiationMaxAttempts, logger, time.Now)
	c.pending = commands.NewStartPendingOrdersCommandHandler(f, c.next, logger)
	c.change = commands.NewChangeTransportOrderStateCommandHandler(f, c.start, c.bus, logger, time.Now)
	c.update = commands.NewUpdateTransportOrderCommandHandler(f, chain, topology, logger, time.Now)
	c.remove = commands.NewRemoveTransportUnitCommandHandler(f, blocked, c.publisher, c.bus, logger, time.Now)

	// Forwarders subscribe before the orchestrators so that nested events
	// leave the service in the order they were raised.
	c.bus.Subscribe("kafka", c.publisher)
	c.bus.Subscribe("metrics", metrics.EventRecorder{})
	eventhandlers.Register(c.bus, c.init, c.trigger, c.next)

	return c, nil
}

func (c *CompositionRoot) HTTPServer() *httpadapter.Server {
	return httpadapter.NewServer(httpadapter.Handlers{
		Create:         c.create,
		Update:         c.update,
		ChangeState:    c.change,
		RemoveUnit:     c.remove,
		Get:            queries.NewGetTransportOrderQueryHandler(c.gormDB),
		List:           queries.NewListTransportOrdersQueryHandler(c.gormDB),
		ProblemHistory: queries.NewGetProblemHistoryQueryHandler(c.gormDB),
	}, c.logger)
}

func (c *CompositionRoot) CommandConsumer() (*kafkain.CommandConsumer, error) {
	return kafkain.NewCommandConsumer(c.consumer, c.publisher, kafkain.Handlers{
		Create:      c.create,
		Update:      c.update,
		ChangeState: c.change,
		RemoveUnit:  c.remove,
	}, c.logger)
}

func (c *CompositionRoot) StartResponseSubscriber() (*natsin.StartResponseSubscriber, error) {
	return natsin.NewStartResponseSubscriber(c.nats, natsin.Subjects{
		Responses:  c.cfg.NATS.StartResponseSubject,
		DeadLetter: c.cfg.NATS.DeadLetterSubject,
	}, c.response, c.logger)
}

func (c *CompositionRoot) JobManager() *jobs.JobManager {
	return jobs.NewJobManager(c.expire, c.pending, c.cfg.Orders.SweepSchedule, c.logger)
}

// Close releases all connections. The database is closed by its owner.
func (c *CompositionRoot) Close() {
	if c.consumer != nil {
		c.consumer.Close()
	}
	if c.producer != nil {
		c.producer.Close()
	}
	if c.nats != nil {
		if err := c.nats.Drain(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
			c.logger.Warn("nats drain failed", zap.Error(err))
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.logger.Warn("redis close failed", zap.Error(err))
		}
	}
}

type FuncUoWFactory func() commands.UoW

func (f FuncUoWFactory) Create() commands.UoW {
	return f()
}
