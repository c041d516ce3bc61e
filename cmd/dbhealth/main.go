package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	_ "github.com/joho/godotenv/autoload"

	"github.com/joseph-ayodele/document-assistant/constants"
	"github.com/joseph-ayodele/document-assistant/internal/app"
	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/repository"
	"github.com/joseph-ayodele/document-assistant/internal/server"
)

func main() {
	os.Exit(run())
}

// run prints the report and returns the exit code: 1 for connectivity or query
// failures, 2 when migrations are pending.
func run() int {
	cfg := common.LoadConfig()
	logger := app.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return 1
	}
	defer server.CloseDB(db, logger)

	if err := server.PingDB(ctx, db, logger, time.Second); err != nil {
		fmt.Printf("DB health: FAIL (%v)\n", err)
		return 1
	}
	fmt.Println("DB health: OK")

	if err := server.CheckSchema(db, logger); err != nil {
		fmt.Printf("migrations: FAIL (%v)\n", err)
		return 2
	}
	fmt.Println("migrations: up to date")

	docs := repository.NewDocumentRepository(db, logger)
	total, err := docs.Count(ctx, "")
	if err != nil {
		fmt.Printf("counting documents: %v\n", err)
		return 1
	}
	fmt.Printf("documents count: %d\n", total)
	for _, label := range constants.DocumentTypes() {
		n, err := docs.Count(ctx, string(label))
		if err != nil {
			fmt.Printf("counting documents: %v\n", err)
			return 1
		}
		fmt.Printf("- %s: %d\n", label, n)
	}
	return 0
}
