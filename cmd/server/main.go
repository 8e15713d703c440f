package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/nekogravitycat/bay-booking-backend/internal/app"
	"github.com/nekogravitycat/bay-booking-backend/internal/config"
	"github.com/nekogravitycat/bay-booking-backend/internal/db"
	"github.com/nekogravitycat/bay-booking-backend/internal/pkg/mq"
	"github.com/nekogravitycat/bay-booking-backend/internal/trackman"
)

const (
	billingExchange = "billing"
	eventsExchange  = "bay-booking"
)

func setupLogger(production bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if !production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	// log.Ctx falls back to the global logger outside request scope.
	zerolog.DefaultContextLogger = &log.Logger
}

func main() {
	// For receiving Ctrl+C / SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	setupLogger(cfg.IsProduction)

	// Connect DB
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(pool); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
		log.Info().Msg("Migrations applied")
	}

	appCfg := app.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		DBPool:          pool,
		JWTSecret:       cfg.JWTSecret,
		JWTTTL:          cfg.JWTAccessTokenTTL,
		Location:        cfg.Location,
		FeeSchedule:     cfg.FeeSchedule,
		TrackmanSecret:  cfg.TrackmanSecret,
		RefreshInterval: cfg.RefreshInterval,
		Redis:           app.NewRedisClient(cfg.RedisAddr),
	}
	if appCfg.Redis != nil {
		defer appCfg.Redis.Close()
	}

	var consumer *mq.Consumer
	if cfg.AMQPURL != "" {
		billingPub, err := mq.NewPublisher(cfg.AMQPURL, billingExchange, true)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open billing publisher")
		}
		defer billingPub.Close()
		eventsPub, err := mq.NewPublisher(cfg.AMQPURL, eventsExchange, false)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open event publisher")
		}
		defer eventsPub.Close()
		appCfg.BillingPublisher = billingPub
		appCfg.EventPublisher = eventsPub

		consumer, err = mq.NewConsumer(cfg.AMQPURL, trackman.Exchange, trackman.Queue, []string{trackman.BindingKey})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open Trackman consumer")
		}
		defer consumer.Close()
	} else {
		log.Warn().Msg("AMQP_URL not set, billing commands are logged only and Trackman imports arrive by webhook")
	}

	container, err := app.NewContainer(appCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build application")
	}

	// Use http.Server for graceful shutdown
	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: container.Router,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Run server
	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("Starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Staff summary refresh
	g.Go(func() error {
		return container.Poller.Run(ctx)
	})

	// Trackman import queue
	if consumer != nil {
		g.Go(func() error {
			return trackman.NewConsumer(container.Importer, consumer, trackman.RetryPolicy).Run(ctx)
		})
	}

	// Wait for interrupt signal
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
	log.Info().Msg("Server exited gracefully")
}
