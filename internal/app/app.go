// Package app wires configuration into a ready-to-use set of components shared by the binaries.
package app

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/joseph-ayodele/document-assistant/internal/common"
	"github.com/joseph-ayodele/document-assistant/internal/export"
	"github.com/joseph-ayodele/document-assistant/internal/llm"
	"github.com/joseph-ayodele/document-assistant/internal/llm/provider"
	"github.com/joseph-ayodele/document-assistant/internal/metrics"
	"github.com/joseph-ayodele/document-assistant/internal/pipeline"
	"github.com/joseph-ayodele/document-assistant/internal/reader"
	"github.com/joseph-ayodele/document-assistant/internal/repository"
	"github.com/joseph-ayodele/document-assistant/internal/repository/migrations"
	"github.com/joseph-ayodele/document-assistant/internal/server"
)

// App owns the database handle and every component built on top of it.
// Processor is nil when the app was opened ReadOnly. The caller must defer Close.
type App struct {
	Config      *common.Config
	DB          *repository.DB
	Documents   repository.DocumentRepository
	Extractions repository.ExtractionRepository
	Processor   *pipeline.Processor
	Export      *export.Service
	Registry    *prometheus.Registry
	Logger      *slog.Logger
}

type options struct {
	capability llm.Capability
	reader     reader.Reader
	migrate    bool
	readOnly   bool
}

type Option func(*options)

// WithCapability replaces the configured LLM provider.
func WithCapability(c llm.Capability) Option {
	return func(o *options) { o.capability = c }
}

// WithReader replaces the default file reader.
func WithReader(r reader.Reader) Option {
	return func(o *options) { o.reader = r }
}

// WithoutMigrations skips applying pending migrations on open.
func WithoutMigrations() Option {
	return func(o *options) { o.migrate = false }
}

// ReadOnly opens the store without a model provider or processor, for commands
// that only read, delete or export records. It implies WithoutMigrations.
func ReadOnly() Option {
	return func(o *options) {
		o.readOnly = true
		o.migrate = false
	}
}

// New validates cfg, opens and migrates the database, then builds the processing graph.
func New(ctx context.Context, cfg *common.Config, logger *slog.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	o := options{migrate: true}
	for _, opt := range opts {
		opt(&o)
	}
	switch {
	case o.readOnly:
		if err := cfg.ValidateDatabase(); err != nil {
			return nil, err
		}
	case o.capability == nil:
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	db, err := server.ConnectDB(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	a := &App{Config: cfg, DB: db, Logger: logger}
	if err := a.init(o); err != nil {
		server.CloseDB(db, logger)
		return nil, err
	}
	return a, nil
}

func (a *App) init(o options) error {
	if o.migrate {
		if err := migrations.MigrateUp(a.DB.SQL(), a.DB.Dialect()); err != nil {
			return common.NewDatabaseError("apply migrations", err)
		}
		a.Logger.Info("db.migrations.applied", "dialect", a.DB.Dialect())
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Documents = repository.NewDocumentRepository(a.DB, a.Logger)
	a.Extractions = repository.NewExtractionRepository(a.DB, a.Logger)
	a.Export = export.NewService(a.Documents, a.Extractions, a.Logger)
	if o.readOnly {
		return nil
	}

	catalog, err := llm.DefaultPromptCatalog(a.Logger)
	if err != nil {
		return err
	}
	prompts, err := catalog.WorkflowPrompts()
	if err != nil {
		return err
	}

	capability := o.capability
	if capability == nil {
		capability, err = provider.New(a.Config.LLM, a.Logger)
		if err != nil {
			return err
		}
	}
	rd := o.reader
	if rd == nil {
		rd = reader.Default(a.Config.OCR, a.Logger)
	}
	m, err := metrics.NewPipeline(a.Registry)
	if err != nil {
		return common.NewConfigError("register pipeline metrics", err)
	}

	a.Processor, err = pipeline.Build(pipeline.Deps{
		LLM:       capability,
		Prompts:   prompts,
		Documents: a.Documents,
		Reader:    rd,
		Metrics:   m,
		Logger:    a.Logger,
	})
	return err
}

// Close releases the database.
func (a *App) Close() {
	server.CloseDB(a.DB, a.Logger)
}

// NewLogger returns a JSON logger on stdout at the named level (debug, info, warn, error).
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
