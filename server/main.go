package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/walletflow"
	"github.com/meikuraledutech/walletflow/analysis"
	"github.com/meikuraledutech/walletflow/api"
	"github.com/meikuraledutech/walletflow/compiler"
	"github.com/meikuraledutech/walletflow/config"
	"github.com/meikuraledutech/walletflow/memory"
	"github.com/meikuraledutech/walletflow/metrics"
	"github.com/meikuraledutech/walletflow/postgres"
	"github.com/meikuraledutech/walletflow/simulate"
	"github.com/meikuraledutech/walletflow/wallet"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("WALLETFLOW_CONFIG"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := cfg.Log.Build()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Wire up postgres behind the Store interface when a database is configured.
	var store walletflow.Store
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			logger.Fatal("connect", zap.Error(err))
		}
		defer pool.Close()
		store = postgres.New(pool)
	} else {
		logger.Warn("DATABASE_URL is not set, keeping flows in memory")
		store = memory.New()
	}

	var collector *metrics.Collector
	opts := []compiler.Option{
		compiler.WithMode(compiler.ParseMode(cfg.Compiler.Mode)),
		compiler.WithDefaultNetwork(walletflow.Network(cfg.Compiler.DefaultNetwork)),
		compiler.WithLogger(logger.Named("compiler")),
	}
	if cfg.Compiler.CacheSize > 0 {
		opts = append(opts, compiler.WithCache(compiler.NewCache(cfg.Compiler.CacheSize)))
	}
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector(cfg.Metrics.Namespace)
		opts = append(opts, compiler.WithObserver(collector))
	}

	var analyzer analysis.Provider = analysis.NewHeuristic(nil)
	if cfg.Analysis.GroqAPIKey != "" {
		groq := analysis.NewGroq(cfg.Analysis.GroqAPIKey,
			analysis.WithBaseURL(cfg.Analysis.GroqBaseURL),
			analysis.WithModel(cfg.Analysis.GroqModel))
		analyzer = analysis.NewFallback(groq, analyzer, logger.Named("analysis"))
	}

	srv := &api.Server{
		Store:           store,
		Compiler:        compiler.New(opts...),
		Simulator:       simulate.New(simulate.WithLogger(logger.Named("simulate"))),
		Analyzer:        analyzer,
		Wallets:         wallet.NewService(store, logger.Named("wallet")),
		Metrics:         collector,
		Logger:          logger.Named("http"),
		DefaultNetwork:  walletflow.Network(cfg.Compiler.DefaultNetwork),
		AnalysisTimeout: cfg.Analysis.Timeout,
		RequestTimeout:  cfg.Server.RequestTimeout,
	}
	app := srv.App()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-stop
		logger.Info("shutting down")
		if err := app.Shutdown(); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	}()

	logger.Info("listening", zap.String("addr", cfg.Server.Addr))
	if err := app.Listen(cfg.Server.Addr); err != nil {
		logger.Fatal("listen", zap.Error(err))
	}
}
