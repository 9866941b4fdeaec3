package config

import (
	"time"

	"github.com/IBM/sarama"
	"github.com/kelseyhightower/envconfig"
)

const (
	DatabaseTypePgsql  = "pgsql"
	DatabaseTypeSqlite = "sqlite"

	StatusBackendDatabase = "database"
	StatusBackendRedis    = "redis"

	QueueMemory = "memory"
	QueueRiver  = "river"
)

var singleConfig *Config = nil

type Config struct {
	Database *dbConfig
	Service  *svcConfig
	Worker   *workerConfig
	Redis    *redisConfig
	Kafka    *kafkaConfig
}

type dbConfig struct {
	Type     string `envconfig:"DB_TYPE" default:"pgsql"`
	Hostname string `envconfig:"DB_HOST" default:"localhost"`
	Port     string `envconfig:"DB_PORT" default:"5432"`
	Name     string `envconfig:"DB_NAME" default:"picalc"`
	User     string `envconfig:"DB_USER" default:"admin"`
	Password string `envconfig:"DB_PASS" default:"adminpass"`
}

type svcConfig struct {
	Address         string        `envconfig:"PI_ADDRESS" default:":5000"`
	MetricsAddress  string        `envconfig:"PI_METRICS_ADDRESS" default:":8080"`
	BaseUrl         string        `envconfig:"PI_BASE_URL" default:"http://localhost:5000"`
	LogLevel        string        `envconfig:"PI_LOG_LEVEL" default:"info"`
	MaxDigits       int           `envconfig:"PI_MAX_DIGITS" default:"1000"`
	StatusBackend   string        `envconfig:"PI_STATUS_BACKEND" default:"database"`
	StatusRetention time.Duration `envconfig:"PI_STATUS_RETENTION" default:"24h"`
	ReaperInterval  time.Duration `envconfig:"PI_REAPER_INTERVAL" default:"10m"`
	MigrationFolder string        `envconfig:"PI_MIGRATIONS_FOLDER" default:""`
	AllowedOrigins  []string      `envconfig:"PI_ALLOWED_ORIGINS" default:"*"`
}

type workerConfig struct {
	Queue               string        `envconfig:"PI_QUEUE" default:"memory"`
	Concurrency         int           `envconfig:"PI_WORKER_CONCURRENCY" default:"4"`
	QueueSize           int           `envconfig:"PI_QUEUE_SIZE" default:"1024"`
	JobTimeout          time.Duration `envconfig:"PI_JOB_TIMEOUT" default:"0"`
	ProgressMinInterval time.Duration `envconfig:"PI_PROGRESS_MIN_INTERVAL" default:"0"`
	GuardDigits         int           `envconfig:"PI_GUARD_DIGITS" default:"50"`
	MinSteps            int           `envconfig:"PI_MIN_STEPS" default:"0"`
	StepDelay           time.Duration `envconfig:"PI_STEP_DELAY" default:"0"`
}

type redisConfig struct {
	Address  string `envconfig:"PI_REDIS_ADDRESS" default:"localhost:6379"`
	Password string `envconfig:"PI_REDIS_PASSWORD" default:""`
	DB       int    `envconfig:"PI_REDIS_DB" default:"0"`
}

type kafkaConfig struct {
	Brokers  []string            `envconfig:"PI_KAFKA_BROKERS" default:""`
	Topic    string              `envconfig:"PI_KAFKA_TOPIC" default:""`
	Version  sarama.KafkaVersion `envconfig:"PI_KAFKA_VERSION" default:""`
	ClientID string              `envconfig:"PI_KAFKA_CLIENT_ID" default:"pi-calculator"`

	SaramaConfig *sarama.Config
}

func New() (*Config, error) {
	if singleConfig == nil {
		singleConfig = new(Config)
		if err := envconfig.Process("", singleConfig); err != nil {
			return nil, err
		}
	}
	return singleConfig, nil
}

// NewDefault returns a configuration suited for tests: in-memory sqlite,
// in-process queue and no event sink.
func NewDefault() *Config {
	return &Config{
		Database: &dbConfig{
			Type: DatabaseTypeSqlite,
			Name: "file::memory:?cache=shared",
		},
		Service: &svcConfig{
			Address:         ":5000",
			MetricsAddress:  ":8080",
			BaseUrl:         "http://localhost:5000",
			LogLevel:        "debug",
			MaxDigits:       1000,
			StatusBackend:   StatusBackendDatabase,
			StatusRetention: 24 * time.Hour,
			ReaperInterval:  10 * time.Minute,
			AllowedOrigins:  []string{"*"},
		},
		Worker: &workerConfig{
			Queue:       QueueMemory,
			Concurrency: 4,
			QueueSize:   1024,
			GuardDigits: 50,
		},
		Redis: &redisConfig{Address: "localhost:6379"},
		Kafka: &kafkaConfig{ClientID: "pi-calculator"},
	}
}
