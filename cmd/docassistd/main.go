package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/document-assistant/internal/app"
	"github.com/joseph-ayodele/document-assistant/internal/async"
	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/ingest"
	"github.com/joseph-ayodele/document-assistant/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("docassistd.failed", "error", err)
		os.Exit(1)
	}
}

// run serves until ctx is done, then drains the queue. Deferred cleanup always runs before it returns.
func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer a.Close()

	if err := server.PingDB(ctx, a.DB, logger, 5*time.Second); err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Paths.InboxDir, 0o755); err != nil {
		return fmt.Errorf("create inbox %s: %w", cfg.Paths.InboxDir, err)
	}

	var queue async.Queue = async.NewProcessorQueue(a.Processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
	)

	health, err := server.NewHealth(cfg.Server.GRPCAddr, func(ctx context.Context) error {
		return a.DB.HealthCheck(ctx, 2*time.Second)
	}, 15*time.Second, logger)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Server.GRPCAddr, err)
	}

	paths, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{cfg.Paths.InboxDir},
		InitialScan: true,
		Debounce:    500 * time.Millisecond,
	}, logger)
	if err != nil {
		return fmt.Errorf("watch inbox %s: %w", cfg.Paths.InboxDir, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return health.Serve(gctx) })
	g.Go(func() error { return server.ServeMetrics(gctx, cfg.Server.MetricsAddr, a.Registry, logger) })
	g.Go(func() error {
		for {
			select {
			case p, ok := <-paths:
				if !ok {
					return nil
				}
				if err := queue.Enqueue(gctx, async.NewJob(p)); err != nil {
					if errors.Is(err, async.ErrQueueClosed) || gctx.Err() != nil {
						return nil
					}
					logger.Warn("queue.enqueue.failed", "path", p, "error", err)
				}
			case err, ok := <-watchErrs:
				if !ok {
					watchErrs = nil
					continue
				}
				logger.Warn("watcher.error", "error", err)
			case <-gctx.Done():
				return nil
			}
		}
	})

	logger.Info("docassistd.started", "inbox", cfg.Paths.InboxDir, "workers", cfg.Queue.Workers)
	serveErr := g.Wait()

	logger.Info("docassistd.shutting_down", "pending", queue.Pending())
	drainCtx, cancel := context.WithTimeout(context.Background(), cfg.Queue.ProcessTimeout)
	defer cancel()
	queue.Shutdown(drainCtx)
	logger.Info("docassistd.stopped")
	return serveErr
}
