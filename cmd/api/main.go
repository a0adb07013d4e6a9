package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"zion-admin/internal/client"
	"zion-admin/internal/config"
	"zion-admin/internal/handler"
	"zion-admin/internal/notify"
	"zion-admin/internal/repository"
	"zion-admin/internal/server"
	"zion-admin/internal/service"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	setupLogger(&cfg.Log)

	db := client.InitDB(cfg.DatabaseURL)
	dispatcher := client.NewDispatchClient(&cfg.Dispatch)
	mailer := client.NewSMTPMailer(&cfg.SMTP)
	forwarder := client.NewStoreForwarder(&cfg.Store)
	promoFeed := client.NewPromoFeed(&cfg.Promos)

	catalogRepo := repository.NewCatalogRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	webhookEventRepo := repository.NewWebhookEventRepository(db)

	bus := notify.NewBus()
	go logBusEvents(bus)

	catalogService := service.NewCatalogService(db, catalogRepo, bus)
	snapshotService := service.NewSnapshotService(db, catalogRepo, bus)
	orderService := service.NewOrderService(db, orderRepo, customerRepo, bus)
	fulfillmentService := service.NewFulfillmentService(
		db,
		orderRepo,
		catalogService,
		orderService,
		dispatcher,
		mailer,
	)
	promoService := service.NewPromoService(&cfg.Promos, promoFeed)

	schedulerCtx, schedulerCancel := context.WithCancel(context.Background())
	defer schedulerCancel()
	if cfg.Promos.FeedURL != "" {
		go promoService.RunScheduler(schedulerCtx)
	}

	catalogHandler := handler.NewCatalogHandler(catalogService, snapshotService)
	orderHandler := handler.NewOrderHandler(orderService)
	fulfillmentHandler := handler.NewFulfillmentHandler(fulfillmentService, &cfg.Dispatch)
	webhookHandler := handler.NewStoreWebhookHandler(&cfg.Store, forwarder, webhookEventRepo)
	promoHandler := handler.NewPromoHandler(promoService)

	srv := server.NewServer(cfg, catalogHandler, orderHandler, fulfillmentHandler, webhookHandler, promoHandler)

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info().Str("addr", serverAddr).Str("env", cfg.Environment.Name).Msg("starting HTTP server")
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Info().Msg("signal received, starting graceful shutdown")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("HTTP server shutdown error")
	}
}

func setupLogger(cfg *config.Log) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if cfg.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func logBusEvents(bus *notify.Bus) {
	events, cancel := bus.Subscribe()
	defer cancel()
	for ev := range events {
		log.Debug().Str("topic", ev.Topic).Time("at", ev.At).Msg("state changed")
	}
}
