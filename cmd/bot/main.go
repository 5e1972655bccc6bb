package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/xaenox/cvformat-bot/internal/action"
	"github.com/xaenox/cvformat-bot/internal/artifact"
	"github.com/xaenox/cvformat-bot/internal/bot"
	"github.com/xaenox/cvformat-bot/internal/classifier"
	"github.com/xaenox/cvformat-bot/internal/extractor"
	"github.com/xaenox/cvformat-bot/internal/intent"
	"github.com/xaenox/cvformat-bot/internal/metrics"
	"github.com/xaenox/cvformat-bot/internal/render"
	"github.com/xaenox/cvformat-bot/internal/server"
	"github.com/xaenox/cvformat-bot/internal/storage"
	"github.com/xaenox/cvformat-bot/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:           "cvformat-bot",
		Short:         "Telegram bot that reformats CVs into branded Word documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Development {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level: %w", err)
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
	}
	return zapCfg.Build()
}

// openStore picks the state backend. SQL backends also get a janitor.
func openStore(cfg config.DatabaseConfig, logger *zap.Logger) (storage.PendingStore, *storage.Janitor, error) {
	var (
		store *storage.SQLStorage
		err   error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		logger.Info("Using PostgreSQL state store", zap.String("host", cfg.Host))
		store, err = storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Host,
			Port:     cfg.Port,
			User:     cfg.User,
			Password: cfg.Password,
			DBName:   cfg.DBName,
			SSLMode:  cfg.SSLMode,
		}, logger)
	case config.DriverSQLite:
		logger.Info("Using SQLite state store", zap.String("path", cfg.SQLitePath))
		store, err = storage.NewSQLiteStorage(cfg.SQLitePath, logger)
	default:
		logger.Info("Using in-memory state store")
		return storage.NewMemoryStorage(), nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	janitor, err := storage.NewJanitor(store, cfg.PurgeSchedule, logger)
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, janitor, nil
}

func run(ctx context.Context, configPath string) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRecorder(registry)

	store, janitor, err := openStore(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	if janitor != nil {
		janitor.Start()
		defer janitor.Stop()
	}
	pending := storage.NewFailSafe(store, cfg.Database.StateTimeout, logger, recorder)

	gpt := classifier.NewGPTClassifier(classifier.Config{
		APIKey:           cfg.OpenAI.APIKey,
		AzureEndpoint:    cfg.OpenAI.AzureEndpoint,
		APIVersion:       cfg.OpenAI.APIVersion,
		BaseURL:          cfg.OpenAI.BaseURL,
		Model:            cfg.OpenAI.Model,
		MaxTokens:        cfg.OpenAI.MaxTokens,
		SummaryMaxTokens: cfg.OpenAI.SummaryMaxTokens,
		Temperature:      cfg.OpenAI.Temperature,
		StructureTimeout: cfg.OpenAI.StructureTimeout,
		SummaryTimeout:   cfg.OpenAI.SummaryTimeout,
		IntentTimeout:    cfg.OpenAI.IntentTimeout,
		MaxInputTokens:   cfg.OpenAI.MaxInputTokens,
	}, logger)

	renderer := render.New(render.Brand{
		Title:          cfg.Brand.Title,
		ConsultantName: cfg.Brand.ConsultantName,
		ConsultantTel:  cfg.Brand.ConsultantTel,
	})

	blob, err := artifact.NewAzureBlob(ctx, cfg.Blob.ConnectionString, cfg.Blob.Container)
	if err != nil {
		return fmt.Errorf("failed to initialize blob storage: %w", err)
	}
	artifacts := artifact.NewStore(blob, artifact.Config{
		Prefix:  cfg.Brand.Prefix,
		LinkTTL: cfg.Blob.LinkTTL,
		Timeout: cfg.Blob.UploadTimeout,
	}, logger)

	var resolverOpts []intent.Option
	if cfg.Classifier.Enabled {
		logger.Info("Intent classifier fallback enabled", zap.Float64("min_confidence", cfg.Classifier.MinConfidence))
		resolverOpts = append(resolverOpts, intent.WithClassifier(gpt, cfg.Classifier.MinConfidence))
	}

	b, err := bot.New(bot.Config{
		Token:           cfg.Telegram.Token,
		Workers:         cfg.Telegram.Workers,
		PollTimeout:     cfg.Telegram.PollTimeout,
		DownloadTimeout: cfg.Telegram.DownloadTimeout,
		MaxFileSize:     cfg.Telegram.MaxFileSize,
	}, logger)
	if err != nil {
		return err
	}

	session := bot.NewSession(bot.SessionDeps{
		Resolver:  intent.NewResolver(logger, resolverOpts...),
		Store:     pending,
		Executor:  action.NewExecutor(gpt, renderer, logger),
		Artifacts: artifacts,
		Extractor: extractor.New(extractor.Config{
			Timeout:      cfg.Extractor.Timeout,
			AntiwordPath: cfg.Extractor.AntiwordPath,
		}, logger),
		Fetcher: b,
		Replier: b,
		Metrics: recorder,
	}, cfg.Brand.Title, logger)

	srv := server.New(cfg.Server.Addr, registry, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return b.Start(ctx, session) })

	logger.Info("CV reformat bot started")
	err = g.Wait()
	logger.Info("CV reformat bot stopped")
	return err
}
