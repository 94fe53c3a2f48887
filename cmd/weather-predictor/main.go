package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	httpapi "github.com/i474232898/weather-predictor/internal/api/http"
	"github.com/i474232898/weather-predictor/internal/config"
	"github.com/i474232898/weather-predictor/internal/dataset"
	"github.com/i474232898/weather-predictor/internal/forest"
	"github.com/i474232898/weather-predictor/internal/scheduler"
	"github.com/i474232898/weather-predictor/internal/sensor"
	"github.com/i474232898/weather-predictor/internal/store"
	"github.com/i474232898/weather-predictor/internal/weather"
)

const serviceName = "weather-predictor"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Training must finish before any request is served.
	records, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		log.Fatalf("failed to load training data: %v", err)
	}
	model, err := weather.Train(ctx, records, forest.Config{
		Trees:           cfg.ForestTrees,
		Seed:            cfg.ForestSeed,
		MaxDepth:        cfg.ForestMaxDepth,
		MinSamplesSplit: cfg.ForestMinSamplesSplit,
	})
	if err != nil {
		log.Fatalf("failed to train model: %v", err)
	}
	service := model.Service()

	// Sensor poller owns the serial device; request handlers only read its state.
	poller := sensor.NewPoller(sensor.Config{
		Device:      cfg.SensorDevice,
		Backoff:     cfg.SensorBackoff,
		DefaultTemp: cfg.SensorDefaultTemp,
	}, sensor.SerialOpener(cfg.SensorDevice, cfg.SensorBaudRate, cfg.SensorReadTimeout), sensor.NewState())

	// In-memory sensor history with configured retention.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Readiness does not depend on the sensor.
	httpapi.RegisterHealth(app, serviceName, model, poller, !cfg.SensorDisabled)

	// API routes.
	httpapi.RegisterRoutes(app, service, poller, memStore)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.SensorDisabled {
		log.Println("INFO: sensor polling disabled; serving default temperature")
	} else {
		g.Go(func() error {
			return poller.Run(gctx)
		})

		// Scheduler that periodically samples the live reading into history.
		sched := scheduler.New(cfg.SampleInterval, poller, memStore)
		if err := sched.Start(); err != nil {
			log.Fatalf("failed to start scheduler: %v", err)
		}
		defer sched.Stop()
	}

	g.Go(func() error {
		log.Printf("INFO: listening on :%s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})

	// Wait for termination signal or a failed listener.
	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Printf("ERROR: %s stopped: %v", serviceName, err)
	}
}
