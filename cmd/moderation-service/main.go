package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LavaJover/tourhub-moderation-service/internal/app/background"
	"github.com/LavaJover/tourhub-moderation-service/internal/app/setup"
	"github.com/LavaJover/tourhub-moderation-service/internal/config"
	"github.com/LavaJover/tourhub-moderation-service/internal/delivery/http/handlers"
	"github.com/LavaJover/tourhub-moderation-service/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	zlog, err := logger.New(cfg.Env, cfg.LogConfig)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.Env != "local" && cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to init dependencies", zap.Error(err))
	}
	defer deps.Close()

	uc, err := setup.InitializeUseCases(deps)
	if err != nil {
		zlog.Fatal("failed to init usecases", zap.Error(err))
	}
	// Deliveries outlive the signal context; Close bounds the drain.
	uc.Notifier.Start(context.WithoutCancel(ctx))

	// Background reconcile and purchase intake
	var purchases *background.PurchaseConsumer
	if deps.Subscriber != nil {
		purchases = background.NewPurchaseConsumer(
			deps.Subscriber,
			cfg.KafkaService.PurchasesTopic,
			cfg.KafkaService.ConsumerGroup,
			uc.Scheduler,
			deps.Repositories.FailedPurchases,
			zlog.Named("purchases"),
		)
	}
	tasks := background.NewBackgroundTasks(uc.Scheduler, cfg.Scheduler.ReconcileInterval, purchases, zlog.Named("background"))
	tasks.StartAll(ctx)

	// gRPC health for probes
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)

	lis, err := net.Listen("tcp", fmt.Sprintf("%s:%s", cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		zlog.Fatal("failed to listen", zap.Error(err))
	}
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			zlog.Error("grpc server stopped", zap.Error(err))
		}
	}()

	// HTTP API
	router := handlers.NewRouter(handlers.RouterDeps{
		Moderation: handlers.NewModerationHandler(uc.Gateway, uc.Moderation),
		Promotions: handlers.NewPromotionHandler(uc.Gateway, uc.Scheduler, uc.Catalogue, deps.Clock),
		Gatherer:   deps.Registry,
		Health: func(ctx context.Context) error {
			sqlDB, err := deps.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		Logger: zlog.Named("http"),
	})
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("http server failed", zap.Error(err))
		}
	}()

	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	zlog.Info("moderation service started",
		zap.String("http_addr", httpServer.Addr),
		zap.String("grpc_addr", lis.Addr().String()),
	)

	<-ctx.Done()
	zlog.Info("shutting down")
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	tasks.Wait()
	if err := uc.Notifier.Close(shutdownCtx); err != nil {
		zlog.Warn("notifier did not drain", zap.Error(err))
	}
}
