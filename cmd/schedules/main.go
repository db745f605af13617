package main

import (
	"context"

	"bookline/internal/ratelimit"
	"bookline/internal/schedules/handler"
	"bookline/internal/schedules/repository"
	"bookline/internal/schedules/service"
	"bookline/internal/schedules/validator"
	"bookline/pkg/app"
	"bookline/pkg/config"
	"bookline/pkg/counter"
	"bookline/pkg/events"
)

const ServiceName = "schedules"

func main() {
	cfg := config.Load(ServiceName)
	cfg.Log.Info("Starting Schedules service")

	cfg.SetMongo()
	cfg.SetRedis()

	store := counter.NewRedisStore(cfg.Client.Redis)

	bucket := ratelimit.NewBucket(store, cfg.RateLimitPrefix, cfg.RateLimit, cfg.Log)
	fillCtx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	if err := bucket.Fill(fillCtx); err != nil {
		cancel()
		cfg.Log.Fatal("Failed to fill admission bucket", "error", err)
	}
	cancel()

	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.Log)

	scheduleRepo := repository.NewMongoScheduleRepository(cfg)
	lockRepo := repository.NewSlotLockRepository(store, cfg.SoftLockTTL)
	scheduleValidator := validator.NewScheduleValidator(cfg.Log)
	scheduleService := service.NewScheduleService(
		scheduleRepo,
		lockRepo,
		store,
		scheduleValidator,
		publisher,
		cfg,
	)
	sweeper := service.NewLockSweeper(scheduleRepo, lockRepo, publisher, cfg)

	cfg.Log.Info("Schedule service initialized",
		"database", cfg.MongoDatabaseName,
		"bucket_key", bucket.Key(),
	)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewScheduleHandler(scheduleService, cfg.Log),
		handler.NewHealthHandler(cfg.Client.Mongo, cfg.Client.Redis, cfg.Log),
		bucket,
	)
	serverApp.AddWorker(bucket)
	serverApp.AddWorker(sweeper)
	serverApp.AddCloser(publisher)
	serverApp.Run()
}
