package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-inventory-ledger/internal/bootstrap"
	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/infrastructure/kafka"
	"go-inventory-ledger/internal/middleware"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Env
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Store
	store, closeStore, err := bootstrap.OpenStore(cfg, log)
	if err != nil {
		log.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	// 3. Setup WebSocket Hub and event publishers
	wsHub := ws.NewHub(log.Named("ws"))
	go wsHub.Run(ctx)

	publishers := service.Publishers{wsHub}
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(log.Named("kafka"), kafka.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer producer.Close()
		publishers = append(publishers, producer)
		log.Info("publishing stock events to kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// 4. Dependency Injection (Wiring Layers)
	svc := bootstrap.NewServices(store, publishers, log)
	invHandler := handler.NewInventoryHandler(svc.Catalog, svc.Stock, svc.Ledger)
	dashHandler := handler.NewDashboardHandler(svc.Dashboard)

	// 5. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.AppName,
	})

	// Middleware
	app.Use(middleware.RequestLogger(log.Named("http")))
	app.Use(recover.New())
	app.Use(cors.New())

	// 6. Routes
	handler.Register(app.Group("/api/v1"), invHandler, dashHandler)
	handler.RegisterWebSocket(app, wsHub)

	// 7. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	log.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Events.Flush(flushCtx); err != nil {
		log.Warn("pending stock events were not delivered", zap.Error(err))
	}
	log.Info("server exited")
}
