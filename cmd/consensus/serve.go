package main

import (
	"consensus-chat/ai"
	"consensus-chat/auth"
	"consensus-chat/domain"
	"consensus-chat/infrastructure/ws/server"
	"consensus-chat/internal"
	"consensus-chat/moderation"
	"consensus-chat/repositories"
	"consensus-chat/runtime"
	"consensus-chat/runtime/workers"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a development room server",
		RunE: wrap(func(cmd *cobra.Command, _ []string) (int, error) {
			var config internal.ServerConfig
			if err := internal.Load(&config, envFiles()...); err != nil {
				return exitConfig, err
			}
			return serve(cmd.Context(), config)
		}),
	}
}

// serve initializes all components, manages the server lifecycle, and centralizes error reporting.
func serve(ctx context.Context, config internal.ServerConfig) (int, error) {
	// 1. Configuration & Logger
	charReplacement, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}
	logger := logs.GetLoggerFromString(config.LogLevel)
	if ctx == nil {
		ctx = context.Background()
	}

	// 2. Database (BadgerDB)
	db, err := badger.Open(buildBadgerOpts(config, logger, ctx))
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	if logger.Enabled(ctx, slog.LevelDebug) && config.DebugPort > 0 {
		endpoint := "/inspect"
		logger.Info("Debug Badger inspector available", "url", fmt.Sprintf("http://localhost:%d%s", config.DebugPort, endpoint))
		database.StartDebugServer(db, config.DebugPort, endpoint, HistoryMapper)
	}

	// 3. Repositories & Moderation
	messageRepository := repositories.NewMessageRepository(db, logger, lo.ToPtr(config.HistoryLimit))
	wordRepository := repositories.NewWordRepository(db)
	if err := wordRepository.StoreWords(config.Words()); err != nil {
		return exitRuntime, fmt.Errorf("unable to store censored words: %w", err)
	}
	words, err := wordRepository.GetWords()
	if err != nil {
		return exitRuntime, fmt.Errorf("unable to load censored words: %w", err)
	}
	var moderator *moderation.Moderator
	if len(words) > 0 {
		m, err := moderation.NewModerator(words, charReplacement, logger)
		if err != nil {
			return exitConfig, err
		}
		moderator = &m
		logger.Info("Moderation enabled", "words", len(words))
	}

	// 4. Setup Supervision
	posts := make(chan domain.PostMessageCommand, config.BufferSize)
	sanitized := make(chan domain.PostMessageCommand, config.BufferSize)
	registry := runtime.NewRegistry()
	broadcaster := runtime.NewBroadcaster(registry, logger)
	panel := ai.NewPanel(config.Agents())
	logger.Info("Agent panel ready", "agents", panel.Agents())

	supervisor := workers.NewSupervisor(logger).WithRestartDelay(config.RestartInterval)
	supervisor.Add(
		workers.NewModerationWorker(moderator, posts, sanitized, logger),
		workers.NewRoomWorker(messageRepository, broadcaster, panel, sanitized, logger),
		workers.NewHeartbeatWorker(logger, config.MetricInterval,
			workers.NamedQueue{Name: "posts", Queue: posts},
			workers.NamedQueue{Name: "sanitized", Queue: sanitized},
		),
	)

	// 5. Context & Signals
	// NotifyContext captures OS signals and cancels the context to trigger a shutdown.
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	supervised := make(chan struct{})
	go func() {
		defer close(supervised)
		logger.Info("Starting workers...")
		supervisor.Run(ctx)
	}()

	// 6. HTTP Server Setup
	roomServer := server.NewRoomServer(logger, registry, broadcaster, messageRepository,
		auth.NewInterceptor(config.JWTSecretKey), posts, config.BufferSize)
	mux := http.NewServeMux()
	mux.Handle("/", roomServer.Handler())
	if logger.Enabled(ctx, slog.LevelDebug) {
		mux.Handle("GET /debug/history", internal.NewInspectHandler(db, internal.HistoryMapper, func() map[string]any {
			return map[string]any{"queued_posts": len(posts), "queued_sanitized": len(sanitized)}
		}))
	}
	httpServer := &http.Server{Addr: config.Address(), Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("Starting room server", "address", config.Address(), "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("room server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case runErr = <-errChan:
	}

	// 8. Final Cleanup (Graceful Shutdown)
	logger.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Room server shutdown", "error", err)
	}
	supervisor.Stop()
	<-supervised
	if runErr != nil {
		return exitRuntime, runErr
	}
	logger.Info("Program stopped cleanly")
	return exitOK, nil
}

// An empty path keeps the history in memory.
func buildBadgerOpts(config internal.ServerConfig, logger *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath).WithInMemory(config.BadgerFilepath == "")

	if logger.Enabled(ctx, slog.LevelDebug) {
		options = options.WithLoggingLevel(badger.DEBUG).
			WithBypassLockGuard(true)
	} else {
		options = options.WithLoggingLevel(badger.WARNING)
	}

	return options
}

func HistoryMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)
	if kind, detail, ok := internal.DecodeHistory(val); ok {
		row.Type, row.Detail = kind, detail
	}
	return row
}
