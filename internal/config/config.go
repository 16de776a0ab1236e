package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type ModerationConfig struct {
	Env             string `yaml:"env" env:"MODERATION_ENV" env-default:"local"`
	HTTPServer      `yaml:"http_server"`
	GRPCServer      `yaml:"grpc_server"`
	ModerationDB    `yaml:"moderation_db"`
	LogConfig       `yaml:"log_config"`
	KafkaService    `yaml:"kafka-service"`
	Redis           `yaml:"redis"`
	AccountsService `yaml:"accounts-service"`
	Scheduler       `yaml:"scheduler"`
}

type HTTPServer struct {
	Host         string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port         string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env-default:"10s"`
}

type GRPCServer struct {
	Host string `yaml:"host" env:"GRPC_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"GRPC_PORT" env-default:"50051"`
}

type ModerationDB struct {
	Dsn            string `yaml:"dsn" env:"MODERATION_DB_DSN" env-required:"true"`
	MigrationsPath string `yaml:"migrations_path" env:"MODERATION_MIGRATIONS_PATH" env-default:"migrations"`
	AutoMigrate    bool   `yaml:"auto_migrate" env:"MODERATION_DB_AUTO_MIGRATE"`
}

type LogConfig struct {
	LogLevel  string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"json"`
	LogOutput string `yaml:"log_output" env:"LOG_OUTPUT" env-default:"stdout"`
}

type KafkaService struct {
	Brokers            []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
	NotificationsTopic string   `yaml:"notifications_topic" env-default:"moderation-notifications"`
	PurchasesTopic     string   `yaml:"purchases_topic" env-default:"promotion-purchases"`
	ConsumerGroup      string   `yaml:"consumer_group" env-default:"moderation-service"`
}

type Redis struct {
	Enabled  bool          `yaml:"enabled" env:"REDIS_ENABLED"`
	Addr     string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int           `yaml:"db" env:"REDIS_DB"`
	LockTTL  time.Duration `yaml:"lock_ttl" env-default:"10s"`
}

type AccountsService struct {
	BaseURL string        `yaml:"base_url" env:"ACCOUNTS_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

type Scheduler struct {
	ReconcileInterval time.Duration `yaml:"reconcile_interval" env-default:"1m"`
	NotifyQueueSize   int           `yaml:"notify_queue_size" env-default:"256"`
	NotifyRetries     int           `yaml:"notify_retries" env-default:"3"`
	NotifyWebhookURL  string        `yaml:"notify_webhook_url" env:"NOTIFY_WEBHOOK_URL"`
}

var errConfigPath = errors.New("MODERATION_CONFIG_PATH was not found")

func MustLoad() *ModerationConfig {
	cfg, err := Load(os.Getenv("MODERATION_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("%v\n", err)
	}
	return cfg
}

// Load reads the YAML file at configPath and applies environment overrides.
func Load(configPath string) (*ModerationConfig, error) {
	if configPath == "" {
		return nil, errConfigPath
	}

	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("failed to find config file: %w", err)
	}

	var cfg ModerationConfig
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return &cfg, nil
}
