package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/trustbit/mandi-service/config"
	"github.com/trustbit/mandi-service/internal/scheduler"
	"github.com/trustbit/mandi-service/internal/server/router"
	"github.com/trustbit/mandi-service/pkg/broker"
	"github.com/trustbit/mandi-service/pkg/cache"
	"github.com/trustbit/mandi-service/pkg/logger"
	"github.com/trustbit/mandi-service/pkg/postgres"

	catalogueH "github.com/trustbit/mandi-service/internal/catalogue/handler"
	catalogueRepoPkg "github.com/trustbit/mandi-service/internal/catalogue/repository"
	catalogueUCPkg "github.com/trustbit/mandi-service/internal/catalogue/usecase"

	dealH "github.com/trustbit/mandi-service/internal/deal/handler"
	dealListenerPkg "github.com/trustbit/mandi-service/internal/deal/listener"
	dealRepoPkg "github.com/trustbit/mandi-service/internal/deal/repository"
	dealUCPkg "github.com/trustbit/mandi-service/internal/deal/usecase"

	deliveryH "github.com/trustbit/mandi-service/internal/delivery/handler"
	deliveryRepoPkg "github.com/trustbit/mandi-service/internal/delivery/repository"
	deliveryUCPkg "github.com/trustbit/mandi-service/internal/delivery/usecase"

	dispatchH "github.com/trustbit/mandi-service/internal/dispatch/handler"
	dispatchRepoPkg "github.com/trustbit/mandi-service/internal/dispatch/repository"
	dispatchUCPkg "github.com/trustbit/mandi-service/internal/dispatch/usecase"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger := logger.Must(logger.New(cfg.Server.AppEnv != "production"))
	defer appLogger.Sync()

	db, err := postgres.New(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("connected to postgres", zap.String("db_name", cfg.Postgres.DBName))

	redisClient, err := cache.NewClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("could not connect to redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))

	bookingConsumer := broker.NewConsumer(&broker.ConsumerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.BookingTopic,
		GroupID: cfg.Kafka.BookingGroup,
	})
	defer bookingConsumer.Close()

	deliveryProducer := broker.NewProducer(&broker.ProducerConfig{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.DeliveryTopic,
	})
	defer deliveryProducer.Close()
	appLogger.Info("connected to kafka",
		zap.Strings("brokers", cfg.Kafka.Brokers),
		zap.String("booking_topic", cfg.Kafka.BookingTopic),
		zap.String("delivery_topic", cfg.Kafka.DeliveryTopic))

	catalogueRepo := catalogueRepoPkg.NewPGRepository(db)
	dealRepo := dealRepoPkg.NewPGRepository(db)
	deliveryRepo := deliveryRepoPkg.NewPGRepository(db)
	dispatchRepo := dispatchRepoPkg.NewPGRepository(db)

	catalogueUC := catalogueUCPkg.NewCatalogueUseCase(catalogueRepo, redisClient, logger.Named(appLogger, "catalogue"))
	dealUC := dealUCPkg.NewDealUseCase(dealRepo, catalogueUC, logger.Named(appLogger, "deal"))
	deliveryUC := deliveryUCPkg.NewDeliveryUseCase(
		deliveryRepo, dealUC, catalogueUC, redisClient, deliveryProducer,
		logger.Named(appLogger, "delivery"))
	dispatchUC := dispatchUCPkg.NewDispatchUseCase(dispatchRepo, deliveryUC, logger.Named(appLogger, "dispatch"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bookingListener := dealListenerPkg.NewDealListener(bookingConsumer, dealUC, logger.Named(appLogger, "listener"))
	go bookingListener.Start(ctx)

	reconciler := scheduler.New(dealUC, logger.Named(appLogger, "scheduler"))
	if err := reconciler.Start(cfg.Reconcile.CronSchedule); err != nil {
		appLogger.Fatal("could not start reconciliation scheduler", zap.Error(err))
	}
	defer reconciler.Stop()

	engine := router.New(router.Handlers{
		Deal:      dealH.NewDealHandler(dealUC, logger.Named(appLogger, "deal")),
		Delivery:  deliveryH.NewDeliveryHandler(deliveryUC, logger.Named(appLogger, "delivery")),
		Catalogue: catalogueH.NewCatalogueHandler(catalogueUC, logger.Named(appLogger, "catalogue")),
		Dispatch:  dispatchH.NewDispatchHandler(dispatchUC, logger.Named(appLogger, "dispatch")),
	}, appLogger, cfg.Server.AppEnv)

	srv := &http.Server{
		Addr:    cfg.Server.HTTPPort,
		Handler: engine,
	}

	go func() {
		appLogger.Info("http server listening", zap.String("addr", cfg.Server.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http server shutdown failed", zap.Error(err))
	}
}
