package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/document-assistant/internal/app"
	"github.com/joseph-ayodele/document-assistant/internal/common"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// newApp loads the environment config and builds the application. The caller must defer Close.
func newApp(ctx context.Context, opts ...app.Option) (*app.App, error) {
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	a, err := app.New(ctx, cfg, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

var rootCmd = &cobra.Command{
	Use:           "docassist",
	Short:         "Classify, extract and file personal documents",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(processCmd, batchCmd, listCmd, showCmd, deleteCmd, exportCmd, migrateCmd)
}
