package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"givepay/internal/config"
	"givepay/internal/credentials"
	"givepay/internal/handlers"
	"givepay/internal/logging"
	"givepay/internal/notifier"
	"givepay/internal/repository"
	"givepay/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	logger := logging.SetupLogger()

	gin.SetMode(gin.ReleaseMode)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	poolConfig, err := pgxpool.ParseConfig(cfg.DBURL)
	if err != nil {
		logger.Error("failed to parse db config", "err", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	var publisher notifier.Publisher = notifier.NopPublisher{}
	if cfg.AMQPURL != "" {
		amqpPub, err := notifier.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			logger.Error("failed to connect to message broker", "err", err)
			os.Exit(1)
		}
		defer amqpPub.Close()
		publisher = amqpPub
	} else {
		logger.Warn("AMQP_URL not set, milestone notifications are disabled")
	}

	repo := repository.NewLedgerPGRepository(pool, logger, cfg.LockTimeout)
	creds := credentials.NewPinVerifier(repo, logger)
	milestones := notifier.New(repo, publisher, logger, cfg.NotifyQueueSize)
	defer milestones.Close()

	transfers := service.NewTransferService(repo, creds, milestones, logger, cfg.TransferTimeout)
	queries := service.NewQueryService(repo, logger)
	handler := handlers.NewDonationHTTPHandler(transfers, queries)

	r := gin.Default()
	handler.RegisterRoutes(r, handlers.AuthRequired(cfg.JWTSecret))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil {
			logger.Error("Server failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
	}
	logger.Info("Server exiting")
}
