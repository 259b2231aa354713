package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prohmpiriya/event-planner/internal/handler"
	"github.com/prohmpiriya/event-planner/internal/repository"
	"github.com/prohmpiriya/event-planner/internal/service"
	"github.com/prohmpiriya/event-planner/pkg/config"
	"github.com/prohmpiriya/event-planner/pkg/database"
	"github.com/prohmpiriya/event-planner/pkg/kafka"
	"github.com/prohmpiriya/event-planner/pkg/logger"
	"github.com/prohmpiriya/event-planner/pkg/mongodb"
	"github.com/prohmpiriya/event-planner/pkg/redis"
	"github.com/prohmpiriya/event-planner/pkg/retry"
)

// Container holds all dependencies for the event API
type Container struct {
	// Infrastructure
	DB       *database.PostgresDB
	Mongo    *mongodb.Client
	Redis    *redis.Client
	Producer *kafka.Producer

	// Repositories
	EventRepo     repository.EventRepository
	ChangeLogRepo repository.ChangeLogRepository

	// Services
	EventService    service.EventService
	ContractService service.ContractService

	// Handlers
	HealthHandler   *handler.HealthHandler
	EventHandler    *handler.EventHandler
	ContractHandler *handler.ContractHandler
}

// ContainerConfig contains configuration for building the container.
// Infrastructure clients are optional; the driver decides which one the
// event store needs.
type ContainerConfig struct {
	Driver string

	DB       *database.PostgresDB
	Mongo    *mongodb.Client
	Redis    *redis.Client
	Producer *kafka.Producer

	ChangeLogTopic string
	CacheTTL       time.Duration
	UploadDir      string
	MaxUploadSize  int64

	Logger *logger.Logger
}

// NewContainer wires repositories, services and handlers. Schemas and
// indexes of the selected store are created on the way.
func NewContainer(ctx context.Context, cfg *ContainerConfig) (*Container, error) {
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}

	c := &Container{
		DB:       cfg.DB,
		Mongo:    cfg.Mongo,
		Redis:    cfg.Redis,
		Producer: cfg.Producer,
	}

	if err := c.initRepositories(ctx, cfg.Driver); err != nil {
		return nil, err
	}
	if c.Redis != nil {
		c.EventRepo = repository.NewCachedEventRepository(c.EventRepo, c.Redis, cfg.CacheTTL, log)
	}

	var publisher service.ChangeLogPublisher
	if c.Producer != nil {
		publisher = service.NewKafkaChangeLogPublisher(c.Producer, cfg.ChangeLogTopic, retry.DefaultConfig())
	}

	// Initialize services
	c.EventService = service.NewEventService(c.EventRepo, c.ChangeLogRepo, publisher, log)
	c.ContractService = service.NewContractService(c.EventRepo, c.ChangeLogRepo, publisher, cfg.UploadDir, log)

	// Initialize handlers
	c.HealthHandler = handler.NewHealthHandler(c.healthChecks())
	c.EventHandler = handler.NewEventHandler(c.EventService)
	c.ContractHandler = handler.NewContractHandler(c.ContractService, cfg.MaxUploadSize)

	return c, nil
}

// Handlers returns the handlers mounted by handler.Register
func (c *Container) Handlers() *handler.Handlers {
	return &handler.Handlers{
		Health:   c.HealthHandler,
		Event:    c.EventHandler,
		Contract: c.ContractHandler,
	}
}

func (c *Container) initRepositories(ctx context.Context, driver string) error {
	switch driver {
	case "", config.DriverMemory:
		c.EventRepo = repository.NewMemoryEventRepository()
		c.ChangeLogRepo = repository.NewMemoryChangeLogRepository()

	case config.DriverMongo:
		if c.Mongo == nil {
			return fmt.Errorf("event store driver %q needs a mongodb client", driver)
		}
		events := repository.NewMongoEventRepository(c.Mongo.Database())
		if err := events.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create event indexes: %w", err)
		}
		changelogs := repository.NewMongoChangeLogRepository(c.Mongo.Database())
		if err := changelogs.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("failed to create changelog indexes: %w", err)
		}
		c.EventRepo, c.ChangeLogRepo = events, changelogs

	case config.DriverPostgres:
		if c.DB == nil {
			return fmt.Errorf("event store driver %q needs a postgres pool", driver)
		}
		if err := repository.EnsureSchema(ctx, c.DB.Pool()); err != nil {
			return err
		}
		c.EventRepo = repository.NewPostgresEventRepository(c.DB.Pool())
		c.ChangeLogRepo = repository.NewPostgresChangeLogRepository(c.DB.Pool())

	default:
		return fmt.Errorf("unknown event store driver %q", driver)
	}
	return nil
}

func (c *Container) healthChecks() map[string]handler.HealthChecker {
	checks := map[string]handler.HealthChecker{}
	if c.DB != nil {
		checks["postgres"] = c.DB
	}
	if c.Mongo != nil {
		checks["mongodb"] = c.Mongo
	}
	if c.Redis != nil {
		checks["redis"] = c.Redis
	}
	if c.Producer != nil {
		checks["kafka"] = handler.HealthCheckFunc(c.Producer.Ping)
	}
	return checks
}
