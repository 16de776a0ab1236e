package setup

import (
	"fmt"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/notifier"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/redislock"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/moderation"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/promotion"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/review"
	"github.com/LavaJover/tourhub-moderation-service/internal/usecase/slots"
)

type UseCases struct {
	Moderation *moderation.DefaultUsecase
	Ledger     *slots.Ledger
	Scheduler  *promotion.Scheduler
	Catalogue  *promotion.Catalogue
	Gateway    *review.Gateway
	Notifier   *notifier.Dispatcher
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	log := deps.Logger
	repos := deps.Repositories

	notifications := initNotifier(deps)
	dispatcher := notifier.Fanout{repos.DecisionEvents, notifications}

	ledgerOpts := []slots.Option{
		slots.WithClock(deps.Clock),
		slots.WithMetrics(deps.Metrics),
		slots.WithLogger(log.Named("slots")),
	}
	if deps.Redis != nil {
		ledgerOpts = append(ledgerOpts, slots.WithLocker(redislock.New(deps.Redis, deps.Config.Redis.LockTTL, log)))
	}
	ledger := slots.NewLedger(repos.Reservations, repos.PromotionTypes, ledgerOpts...)

	scheduler, err := promotion.NewScheduler(
		repos.PromotionRequests,
		repos.PromotionTypes,
		ledger,
		dispatcher,
		promotion.WithClock(deps.Clock),
		promotion.WithMetrics(deps.Metrics),
		promotion.WithLogger(log.Named("promotion")),
	)
	if err != nil {
		return nil, fmt.Errorf("promotion scheduler: %w", err)
	}

	moderationOpts := []moderation.Option{
		moderation.WithClock(deps.Clock),
		moderation.WithMetrics(deps.Metrics),
		moderation.WithLogger(log.Named("moderation")),
	}
	if deps.Accounts != nil {
		moderationOpts = append(moderationOpts,
			moderation.WithApprovalAction(domain.KindDeletionRequest, moderation.DeleteAccountAction(deps.Accounts)))
	}
	moderationUsecase, err := moderation.NewDefaultUsecase(repos.Moderation, dispatcher, moderationOpts...)
	if err != nil {
		return nil, fmt.Errorf("moderation usecase: %w", err)
	}

	return &UseCases{
		Moderation: moderationUsecase,
		Ledger:     ledger,
		Scheduler:  scheduler,
		Catalogue:  promotion.NewCatalogue(repos.PromotionTypes, deps.Clock, log.Named("catalogue")),
		Gateway:    review.NewGateway(moderationUsecase, scheduler),
		Notifier:   notifications,
	}, nil
}

func initNotifier(deps *Dependencies) *notifier.Dispatcher {
	cfg := deps.Config
	var sinks []notifier.Sink
	if deps.Publisher != nil {
		sinks = append(sinks, notifier.NewKafkaSink(deps.Publisher, cfg.KafkaService.NotificationsTopic))
	}
	if cfg.Scheduler.NotifyWebhookURL != "" {
		sinks = append(sinks, notifier.NewWebhookSink(cfg.Scheduler.NotifyWebhookURL, cfg.AccountsService.Timeout))
	}
	return notifier.NewDispatcher(sinks,
		notifier.WithQueueSize(cfg.Scheduler.NotifyQueueSize),
		notifier.WithRetries(cfg.Scheduler.NotifyRetries, 500*time.Millisecond),
		notifier.WithMetrics(deps.Metrics),
		notifier.WithLogger(deps.Logger.Named("notifier")),
	)
}
