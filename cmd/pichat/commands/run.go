package commands

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"pichat/internal/chat"
	"pichat/internal/database"
	"pichat/internal/database/migration"
	"pichat/internal/display"
	"pichat/internal/http/handler"
	"pichat/internal/http/middleware"
	"pichat/internal/llm"
	"pichat/internal/metrics"
	"pichat/internal/mqtt"
	"pichat/internal/otel"
	"pichat/internal/repository/postgres"
	"pichat/internal/service"
	"pichat/internal/storage"
	"pichat/internal/tools"
)

// run: the chat node daemon. Connects to the broker, drives the idle/chat
// mode machine and serves the HTTP status/display/archive API.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the chat node daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDaemon()
		},
	}
}

func runDaemon() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otel.Init(ctx, log)
	if err != nil {
		return err
	}
	defer shutdownTracing(context.Background())

	reg := prometheus.NewRegistry()
	met, err := metrics.New(reg)
	if err != nil {
		return err
	}

	frames := display.NewFrameStore(cfg.DisplayWidth)
	screen := display.Fanout{frames, display.NewConsole(os.Stdout, cfg.DisplayWidth)}
	defer screen.Close()

	lc, err := llm.NewGemini(cfg.LLM)
	if err != nil {
		return err
	}

	broker := mqtt.New(cfg.NodeID, cfg.Broker, cfg.Timing.PresenceTTL, met, log)
	if err := broker.Connect(ctx); err != nil {
		return err
	}
	defer broker.Close()

	archive := service.NewNoopArchive()
	var db *sql.DB
	if cfg.ArchiveEnabled() {
		db, err = database.NewPostgres(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		if err := migration.EnsureMigrated(ctx, db, log); err != nil {
			return err
		}

		store, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return err
		}
		archive = service.NewArchiveService(store, postgres.NewConversationPostgres(db))
	} else {
		log.Info("no database configured, conversations will not be archived")
	}

	engine := chat.New(cfg, broker, lc, screen, archive, met, log)
	registry := tools.NewRegistry(cfg.NodeID, cfg.PeerID, screen, broker, engine, met, log)
	engine.SetTools(registry)

	promMW, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		ErrorHandler:          handler.ErrorHandler(),
		DisableStartupMessage: true,
	})
	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log))
	app.Use(promMW.Handler())

	handler.RegisterRoutes(app, handler.Deps{
		Engine:   engine,
		Broker:   broker,
		DB:       db,
		Archive:  archive,
		Frames:   frames,
		Registry: reg,
	})

	errCh := make(chan error, 2)
	go func() {
		if err := engine.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
			return
		}
		errCh <- nil
	}()
	go func() {
		log.WithField("port", cfg.HTTPPort).Info("http server listening")
		errCh <- app.Listen(":" + cfg.HTTPPort)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		stop()
	}

	log.Info("shutting down")
	if err := app.Shutdown(); err != nil {
		log.WithError(err).Warn("http shutdown failed")
	}
	return runErr
}
