package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/consignops/fulfillment-service/docs"
	"github.com/consignops/fulfillment-service/internal/app"
	"github.com/consignops/fulfillment-service/internal/config"
	"github.com/consignops/fulfillment-service/internal/handler"
	"github.com/consignops/fulfillment-service/internal/postgres"
	"github.com/consignops/fulfillment-service/internal/repo"
	"github.com/consignops/fulfillment-service/internal/service"
	"github.com/consignops/fulfillment-service/internal/storage"
	"github.com/consignops/fulfillment-service/pkg/cache"
	"github.com/consignops/fulfillment-service/pkg/trm"

	"github.com/joho/godotenv"
)

// @title           Fulfillment Service API
// @version         1.0
// @description     Consignment back-office fulfillment and notification API
func main() {
	conf := config.New()
	logger := newLogger(conf.Env)
	panicIfErr("invalid config", conf.Validate())

	db, err := postgres.New(conf.Postgres)
	panicIfErr("failed to connect to db", err)
	defer db.Close()
	logger.Info("postgres connected")

	store := repo.NewPostgresRepo(db)
	txManager := trm.NewManager(db)
	labelCache := cache.NewLRUCache(conf.Cache.Capacity, conf.Cache.TTL)

	labelStore, err := storage.NewDiskStore(conf.Labels.StorageDir, conf.Labels.BaseURL)
	panicIfErr("failed to init label storage", err)

	lifecycleService := service.NewLifecycleService(logger, txManager, store, store)
	inventoryService := service.NewInventoryService(logger, txManager, store)
	fulfillmentService := service.NewFulfillmentService(
		logger, txManager, store, store, store, store, store,
		lifecycleService, inventoryService, labelStore,
		service.FulfillmentConfig{MaxLabelBytes: conf.Labels.MaxUploadBytes},
	)
	labelService := service.NewLabelService(logger, store, store, store, labelCache, conf.Labels.BaseURL)
	notificationService := service.NewNotificationService(logger, store, store, store, store, conf.Notifications.WindowSize)
	activityService := service.NewActivityService(logger, store)

	kafkaHandler := handler.NewKafkaHandler(logger, conf.Kafka, fulfillmentService)
	httpHandler := handler.NewHTTPHandler(
		logger,
		fulfillmentService,
		labelService,
		notificationService,
		activityService,
		conf.Auth.JWTSecret,
		conf.Labels.MaxUploadBytes,
	)
	handler.RegisterMetrics()

	app := app.New(logger, conf)

	app.SetHttpHandlers(httpHandler)
	app.SetKafkaHandlers(kafkaHandler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	labelCache.StartJanitor(ctx)

	app.Start(ctx)
	<-ctx.Done()
	app.Stop()
}

func init() {
	godotenv.Load()
}

func newLogger(env string) *slog.Logger {
	switch env {
	case "production":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

func panicIfErr(prefix string, err error) {
	if err != nil {
		panic(prefix + ": " + err.Error())
	}
}
