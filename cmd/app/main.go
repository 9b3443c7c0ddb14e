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

	"tms/cmd"
	"tms/internal/adapters/out/postgres"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const shutdownTimeout = 15 * time.Second

var configPath string

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tms",
	Short: "Transport order management service",
	Long: `tms manages transport orders for warehouse transport units: it accepts
orders over REST and Kafka, decides when they start and publishes their
lifecycle events.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the REST API, the command consumers and the scheduled sweeps",
	RunE:  runServe,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}

func setup() (cmd.Config, *zap.Logger, *gorm.DB, error) {
	cfg, err := cmd.LoadConfig(configPath)
	if err != nil {
		return cmd.Config{}, nil, nil, err
	}
	log, err := cmd.NewLogger(cfg.Log)
	if err != nil {
		return cmd.Config{}, nil, nil, err
	}
	db, err := gorm.Open(pgdriver.Open(cfg.DB.DSN()), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return cmd.Config{}, nil, nil, fmt.Errorf("open database: %w", err)
	}
	return cfg, log, db, nil
}

func runMigrate(*cobra.Command, []string) error {
	_, log, db, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err = postgres.Migrate(db); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("schema migrated")
	return nil
}

func runServe(*cobra.Command, []string) error {
	cfg, log, db, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := cmd.NewCompositionRoot(ctx, cfg, db, log)
	if err != nil {
		return err
	}
	defer app.Close()

	responses, err := app.StartResponseSubscriber()
	if err != nil {
		return err
	}
	if err = responses.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = responses.Stop() }()

	jobManager := app.JobManager()
	if err = jobManager.StartAll(); err != nil {
		return err
	}
	defer jobManager.StopAll()

	consumer, err := app.CommandConsumer()
	if err != nil {
		return err
	}
	consumerDone := make(chan error, 1)
	go func() { consumerDone <- consumer.Run(ctx) }()

	server := &http.Server{
		Addr:              fmt.Sprintf("0.0.0.0:%d", cfg.HTTP.Port),
		Handler:           otelhttp.NewHandler(newEcho(app, log), "http-server"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverDone := make(chan error, 1)
	go func() {
		log.Info("http server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverDone <- err
		}
		close(serverDone)
	}()

	select {
	case <-ctx.Done():
	case err = <-consumerDone:
		log.Error("command consumer stopped", zap.Error(err))
	case err = <-serverDone:
		log.Error("http server stopped", zap.Error(err))
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("http shutdown failed", zap.Error(shutdownErr))
	}
	log.Info("shutdown complete")
	return err
}

func newEcho(app *cmd.CompositionRoot, log *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				log.Warn("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			log.Debug("request", fields...)
			return nil
		},
	}))
	app.HTTPServer().Register(e)
	return e
}
