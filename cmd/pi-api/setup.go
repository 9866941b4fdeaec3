package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/IBM/sarama"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/picalc/pi-calculator/internal/compute"
	"github.com/picalc/pi-calculator/internal/config"
	"github.com/picalc/pi-calculator/internal/events"
	"github.com/picalc/pi-calculator/internal/store"
	"github.com/picalc/pi-calculator/internal/worker"
	"github.com/picalc/pi-calculator/pkg/log"
)

const (
	riverStopTimeout = 30 * time.Second
	poolStopTimeout  = 30 * time.Second
)

// setup reads the configuration and installs the global logger. The returned
// func flushes the logger.
func setup() (*config.Config, func()) {
	cfg, err := config.New()
	if err != nil {
		zap.S().Fatalw("reading configuration", "error", err)
	}

	logger := log.InitLog(log.Level(cfg.Service.LogLevel))
	undo := zap.ReplaceGlobals(logger)

	return cfg, func() {
		_ = logger.Sync()
		undo()
	}
}

// newStore opens the database and, with the redis backend, moves the job
// statuses to redis.
func newStore(cfg *config.Config) (store.Store, error) {
	db, err := store.InitDB(cfg)
	if err != nil {
		return nil, fmt.Errorf("initializing data store: %w", err)
	}

	switch cfg.Service.StatusBackend {
	case config.StatusBackendDatabase:
		return store.NewStore(db), nil
	case config.StatusBackendRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Address},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return store.NewStore(db, store.WithJobStatus(store.NewRedisJobStatusStore(client, cfg.Service.StatusRetention))), nil
	default:
		return nil, fmt.Errorf("unknown status backend %q", cfg.Service.StatusBackend)
	}
}

func newPgxPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	// Parse config to safely handle special characters in credentials
	dsn := fmt.Sprintf("host=%s user=%s password=%s port=%s dbname=%s",
		cfg.Database.Hostname,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Port,
		cfg.Database.Name,
	)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pgx config: %w", err)
	}

	// River workers hold one connection per running job plus LISTEN
	poolCfg.MaxConns = int32(cfg.Worker.Concurrency) + 4
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = time.Hour
	poolCfg.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	return pool, nil
}

// newEventProducer writes to kafka when brokers are configured, to the log
// otherwise.
func newEventProducer(cfg *config.Config) (*events.EventProducer, error) {
	var opts []events.ProducerOptions
	if cfg.Kafka.Topic != "" {
		opts = append(opts, events.WithOutputTopic(cfg.Kafka.Topic))
	}

	if len(cfg.Kafka.Brokers) == 0 {
		return events.NewEventProducer(&events.StdoutWriter{}, opts...), nil
	}

	saramaCfg := cfg.Kafka.SaramaConfig
	if saramaCfg == nil {
		saramaCfg = sarama.NewConfig()
	}
	saramaCfg.ClientID = cfg.Kafka.ClientID
	if cfg.Kafka.Version != (sarama.KafkaVersion{}) {
		saramaCfg.Version = cfg.Kafka.Version
	}

	writer, err := events.NewKafkaWriter(cfg.Kafka.Brokers, saramaCfg)
	if err != nil {
		return nil, err
	}
	zap.S().Infow("writing events to kafka", "brokers", cfg.Kafka.Brokers)
	return events.NewEventProducer(writer, opts...), nil
}

func newRunner(cfg *config.Config, statuses store.JobStatus, producer *events.EventProducer) *worker.Runner {
	policy := compute.Policy{
		GuardDigits: cfg.Worker.GuardDigits,
		MinSteps:    cfg.Worker.MinSteps,
		StepDelay:   cfg.Worker.StepDelay,
	}

	return worker.NewRunner(statuses, compute.NewPi(policy),
		worker.WithTimeout(cfg.Worker.JobTimeout),
		worker.WithProgressInterval(cfg.Worker.ProgressMinInterval),
		worker.WithEventPublisher(producer),
	)
}

func closeProducer(producer *events.EventProducer) {
	if err := producer.Close(); err != nil {
		zap.S().Errorw("failed to close event producer", "error", err)
	}
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
