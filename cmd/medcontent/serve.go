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

	"github.com/jonathan/medcontent/internal/compliance"
	"github.com/jonathan/medcontent/internal/config"
	"github.com/jonathan/medcontent/internal/db"
	"github.com/jonathan/medcontent/internal/llm"
	"github.com/jonathan/medcontent/internal/notify"
	"github.com/jonathan/medcontent/internal/observability"
	"github.com/jonathan/medcontent/internal/persuasion"
	"github.com/jonathan/medcontent/internal/pipeline"
	"github.com/jonathan/medcontent/internal/repair"
	"github.com/jonathan/medcontent/internal/rewriting"
	"github.com/jonathan/medcontent/internal/seo"
	"github.com/jonathan/medcontent/internal/server"
	"github.com/jonathan/medcontent/internal/server/ratelimit"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  `Start an HTTP server that generates posts, runs compliance checks and streams pipeline progress.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if cfg.LLM.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}
	if err := cfg.Auth.RequireSecret(); err != nil {
		return err
	}

	logger := observability.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(contextOrBackground(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer store.Close() //nolint:errcheck

	if serveMigrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	llmConfig := llm.DefaultConfig()
	if cfg.LLM.Model != "" {
		llmConfig = llmConfig.WithModel(llm.TierStandard, cfg.LLM.Model)
	}
	client, err := llm.NewClient(ctx, llmConfig, cfg.LLM.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	scanner := compliance.NewScanner(nil)
	fixer := repair.NewFixer(scanner)
	scorer := persuasion.NewScorer()
	registry := notify.NewRegistry(logger, metrics)

	orchestrator := pipeline.New(pipeline.Deps{
		Store:       store,
		Rewriter:    rewriting.NewGenerator(client),
		Keywords:    seo.NewExtractor(),
		Titles:      seo.NewTitleGenerator(client),
		Scanner:     scanner,
		Fixer:       fixer,
		Scorer:      scorer,
		Notifier:    registry,
		Logger:      logger,
		Metrics:     metrics,
		CallTimeout: cfg.Pipeline.CallTimeout,
	})

	jwtService := server.NewJWTService(&cfg.Auth)
	srv := server.New(server.Deps{
		Posts:    orchestrator,
		Registry: registry,
		Tokens:   jwtService.AsTokenValidator(),
		Scanner:  scanner,
		Fixer:    fixer,
		Scorer:   scorer,
		Limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
			Burst:             cfg.RateLimit.Burst,
			CleanupInterval:   cfg.RateLimit.CleanupInterval,
		}),
		Metrics:    metrics,
		Gatherer:   reg,
		Logger:     logger,
		Health:     store.Ping,
		BatchLimit: cfg.Pipeline.BatchLimit,
		QueueSize:  cfg.Notify.QueueSize,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	return srv.Serve(ctx, addr, cfg.Server.ReadTimeout, cfg.Server.ShutdownTimeout)
}

// contextOrBackground guards commands run without a cobra context (tests calling RunE directly).
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
