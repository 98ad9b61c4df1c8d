package main

import (
	"checkquest/config"
	"checkquest/config/setup"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "checkquest",
	Short: "Gamified compliance checklists for restaurant teams",
	Long: `checkquest serves the checklist API and PWA, and mirrors completed
checklists and action plans to Notion, n8n and Google Sheets.

Running it without a subcommand starts the server.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the sync worker",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := config.Load(); err != nil {
		return err
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	db, err := setup.InitDatabase(config.AppConfig.DBPath, logger)
	if err != nil {
		logger.Error("failed to initialize database", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, syncWorker, err := setup.InitApp(ctx, db, logger)
	if err != nil {
		logger.Error("failed to initialize application", "error", err)
		setup.Shutdown(nil, db, logger)
		return err
	}

	app := setup.NewFiberApp(logger)
	setup.ApplyMiddleware(app, logger)
	setup.RegisterRoutes(app, application)

	logger.Info("starting server", "port", config.AppConfig.Port, "env", config.AppConfig.Env, "version", version)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Listen(":" + config.AppConfig.Port)
	}()

	select {
	case err = <-serverErr:
		logger.Error("server failed", "error", err)
	case <-ctx.Done():
		logger.Info("shutting down server gracefully")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if shutdownErr := app.ShutdownWithContext(shutdownCtx); shutdownErr != nil {
		logger.Error("server forced to shutdown", "error", shutdownErr)
	}

	setup.Shutdown(syncWorker, db, logger)
	logger.Info("server stopped")
	return err
}

// loadToolConfig loads configuration for commands that do not serve HTTP
// and so do not need Google credentials
func loadToolConfig() error {
	if err := config.Load(); err != nil && !errors.Is(err, config.ErrMissingClientID) {
		return err
	}
	slog.SetDefault(setupLogger())
	return nil
}

func setupLogger() *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level:     getLogLevel(),
		AddSource: config.AppConfig.Env == "development",
	}

	out := logOutput(config.AppConfig.LogFile)

	if config.AppConfig.IsProduction() {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	return slog.New(handler)
}

// logOutput writes to stdout, and also to a rotated file when one is configured
func logOutput(path string) io.Writer {
	if path == "" {
		return os.Stdout
	}
	return io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	})
}

func getLogLevel() slog.Level {
	switch config.AppConfig.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
