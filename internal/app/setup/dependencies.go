package setup

import (
	"context"
	"fmt"

	"github.com/LavaJover/tourhub-moderation-service/internal/config"
	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/accounts"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/kafka"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/logger"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/metrics"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/migrate"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/redislock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config     *config.ModerationConfig
	Logger     *zap.Logger
	DB         *gorm.DB
	Registry   *prometheus.Registry
	Metrics    *metrics.ModerationMetrics
	Publisher  *kafka.DefaultKafkaPublisher
	Subscriber *kafka.DefaultKafkaSubscriber
	Redis      *redis.Client
	Accounts   domain.AccountService
	Clock      domain.Clock

	Repositories *Repositories
}

type Repositories struct {
	Moderation        domain.ModerationRepository
	PromotionTypes    domain.PromotionTypeRepository
	PromotionRequests domain.PromotionRequestRepository
	Reservations      domain.ReservationStore
	DecisionEvents    *logger.PGDecisionEventLogger
	FailedPurchases   *logger.PGFailedPurchaseLogger
}

func NewRepositories(db *gorm.DB, log *zap.Logger) *Repositories {
	return &Repositories{
		Moderation:        repository.NewDefaultModerationRepository(db),
		PromotionTypes:    repository.NewDefaultPromotionTypeRepository(db),
		PromotionRequests: repository.NewDefaultPromotionRequestRepository(db),
		Reservations:      repository.NewDefaultReservationStore(db),
		DecisionEvents:    logger.NewPGDecisionEventLogger(db, log),
		FailedPurchases:   logger.NewPGFailedPurchaseLogger(db),
	}
}

// NewRegistry returns a metrics registry with the Go runtime and process
// collectors installed.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func InitializeDependencies(ctx context.Context, cfg *config.ModerationConfig, log *zap.Logger) (*Dependencies, error) {
	db := postgres.MustInitDB(cfg)
	if !cfg.ModerationDB.AutoMigrate {
		if err := migrate.RunMigrations(db, cfg.ModerationDB.MigrationsPath, log); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	reg := NewRegistry()
	deps := &Dependencies{
		Config:       cfg,
		Logger:       log,
		DB:           db,
		Registry:     reg,
		Metrics:      metrics.NewModerationMetrics(reg),
		Clock:        domain.SystemClock{},
		Repositories: NewRepositories(db, log),
	}

	if len(cfg.KafkaService.Brokers) > 0 {
		deps.Publisher = kafka.NewDefaultKafkaPublisher(cfg.KafkaService.Brokers)
		deps.Subscriber = kafka.NewDefaultKafkaSubscriber(cfg.KafkaService.Brokers)
	} else {
		log.Warn("kafka brokers are not configured, notifications and purchase events are disabled")
	}

	if cfg.Redis.Enabled {
		rdb, err := redislock.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		deps.Redis = rdb
	}

	if cfg.AccountsService.BaseURL != "" {
		deps.Accounts = accounts.NewHTTPAccountsClient(cfg.AccountsService.BaseURL, cfg.AccountsService.Timeout)
	} else {
		log.Warn("accounts service is not configured, approving deletion requests will not delete accounts")
	}

	return deps, nil
}

// Close releases connections opened by InitializeDependencies.
func (d *Dependencies) Close() {
	if d.Publisher != nil {
		if err := d.Publisher.Close(); err != nil {
			d.Logger.Warn("failed to close kafka publisher", zap.Error(err))
		}
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
