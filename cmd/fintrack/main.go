package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
	"fintrack/internal/auth"
	"fintrack/internal/config"
	"fintrack/internal/extract"
	"fintrack/internal/extract/gemini"
	fthttp "fintrack/internal/http"
	"fintrack/internal/log"
	"fintrack/internal/services"
	"fintrack/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fintrack: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer repo.Close()

	// AMQP is optional. A broker outage must not keep the service down;
	// events are best-effort.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.WithComponent(log.ComponentAMQP).Warn("AMQP unavailable, events disabled",
				log.FieldError, err.Error())
			amqpClient = nil
		}
	}

	// The extractor is optional too; receipt uploads fail with a gateway
	// error while the rest of the API keeps working.
	var extractor extract.Extractor
	if geminiClient, err := gemini.New(ctx, cfg.GeminiModel); err != nil {
		logger.WithComponent(log.ComponentExtract).Warn("Extraction service unavailable",
			log.FieldError, err.Error())
	} else {
		extractor = geminiClient
	}

	transactionSvc := services.NewTransactionService(repo, amqpClient, cfg.DefaultCurrency)
	defer transactionSvc.Close()
	aggregationSvc := services.NewAggregationService(repo)
	receiptSvc := services.NewReceiptService(extractor, services.ExtractionConfig{
		MaxBytes:            cfg.UploadMaxBytes,
		DefaultCurrency:     cfg.DefaultCurrency,
		SentinelCategory:    cfg.SentinelCategory,
		SentinelDescription: cfg.SentinelDescription,
	})

	server := fthttp.NewServer(fthttp.ServerConfig{
		Transactions:   transactionSvc,
		Aggregations:   aggregationSvc,
		Receipts:       receiptSvc,
		Verifier:       auth.NewVerifier(cfg.JWTSecret),
		Store:          repo,
		UploadMaxBytes: cfg.UploadMaxBytes,
	})
	httpServer := server.HTTPServer(":"+cfg.Port, logger)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
