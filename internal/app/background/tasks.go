package background

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/domain"
	"go.uber.org/zap"
)

type ExpiryReconciler interface {
	ReconcileExpired(ctx context.Context, asOf time.Time) ([]string, error)
}

type BackgroundTasks struct {
	Reconciler        ExpiryReconciler
	ReconcileInterval time.Duration
	Purchases         *PurchaseConsumer
	Clock             domain.Clock
	Logger            *zap.Logger

	wg sync.WaitGroup
}

func NewBackgroundTasks(reconciler ExpiryReconciler, interval time.Duration, purchases *PurchaseConsumer, logger *zap.Logger) *BackgroundTasks {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackgroundTasks{
		Reconciler:        reconciler,
		ReconcileInterval: interval,
		Purchases:         purchases,
		Clock:             domain.SystemClock{},
		Logger:            logger,
	}
}

func (bt *BackgroundTasks) StartAll(ctx context.Context) {
	bt.wg.Add(1)
	go func() {
		defer bt.wg.Done()
		bt.startReconcileExpired(ctx)
	}()

	if bt.Purchases != nil {
		bt.wg.Add(1)
		go func() {
			defer bt.wg.Done()
			if err := bt.Purchases.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				bt.Logger.Error("purchase consumer stopped", zap.Error(err))
			}
		}()
	}
}

// Wait blocks until every task has returned after ctx was cancelled.
func (bt *BackgroundTasks) Wait() {
	bt.wg.Wait()
}

func (bt *BackgroundTasks) startReconcileExpired(ctx context.Context) {
	ticker := time.NewTicker(bt.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			bt.reconcileOnce(ctx)
		}
	}
}

func (bt *BackgroundTasks) reconcileOnce(ctx context.Context) {
	expired, err := bt.Reconciler.ReconcileExpired(ctx, bt.Clock.Now())
	if err != nil {
		bt.Logger.Error("reconcile expired promotions failed", zap.Error(err))
		return
	}
	if len(expired) > 0 {
		bt.Logger.Debug("reconciled expired promotions", zap.Strings("request_ids", expired))
	}
}
