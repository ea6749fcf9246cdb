package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"journalAnalytics/config"
	"journalAnalytics/internal/adapters/binanceclient"
	"journalAnalytics/internal/adapters/logger"
	"journalAnalytics/internal/adapters/sqlite"
	"journalAnalytics/internal/aggregate"
	"journalAnalytics/internal/analytics"
	"journalAnalytics/internal/app"
	"journalAnalytics/internal/ports"
	"journalAnalytics/internal/pricing"
	"journalAnalytics/internal/risk"
	"journalAnalytics/internal/trace"
)

// Set by ldflags at build time
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "journal-analytics",
		Short:         "PnL, position and risk analytics for crypto trade journals",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newAnalyzeCmd(),
		newDetectCmd(),
		newRunsCmd(),
		newPriceCmd(),
		newVersionCmd(),
	)
	return root
}

// runtime holds the wired application for one command invocation.
type runtime struct {
	cfg        *config.Config
	logger     *logger.ZapLogger
	feed       ports.PriceFeed // nil unless USE_LIVE_PRICE
	poller     *pricing.Poller // Running in the background while feed is set
	stopPoller context.CancelFunc
	waitPoller func()
	repo       *sqlite.Repository
	service    *app.AnalysisService
}

// bootstrapOptions selects the optional parts of the runtime.
type bootstrapOptions struct {
	withRepo bool                              // Open the run store
	onPrice  func(price float64, at time.Time) // Called after each background price poll
}

// bootstrap wires every adapter in the same order for all commands.
// The returned runtime must be closed.
func bootstrap(cfg *config.Config, opts bootstrapOptions) (*runtime, error) {
	ctx := context.Background()

	// 1. Initialize Logger
	appLogger, err := logger.NewZapLogger(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	appLogger.Debug(ctx, "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 2. Initialize Tracing
	if err := trace.Init(trace.Options{Enabled: cfg.TracingEnabled, Version: Version}); err != nil {
		appLogger.Error(ctx, err, "Failed to initialize tracing, continuing without it")
	}

	rt := &runtime{cfg: cfg, logger: appLogger}

	// 3. Initialize Statistics Engine
	thresholds, err := config.LoadHeuristics(cfg.HeuristicsFile)
	if err != nil {
		rt.Close()
		return nil, err
	}
	heuristics, err := risk.NewHeuristics(thresholds)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to initialize risk heuristics: %w", err)
	}
	engine, err := analytics.NewEngine(heuristics, analytics.Config{
		Confidence: cfg.VaRConfidence,
		Aggregate:  aggregate.Options{Location: cfg.Location, ZeroFill: cfg.ZeroFillDays},
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to initialize statistics engine: %w", err)
	}

	// 4. Initialize Price Feed (Binance Adapter)
	if cfg.UseLivePrice {
		client, err := binanceclient.New(binanceclient.Config{
			UseTestnet: cfg.IsTestnet,
			Logger:     appLogger,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to initialize Binance client: %w", err)
		}
		rt.feed = client
		appLogger.Debug(ctx, "Binance price feed initialized", map[string]interface{}{"testnet": cfg.IsTestnet})

		rt.poller, err = pricing.NewPoller(pricing.PollerConfig{
			Feed:     client,
			Logger:   appLogger,
			Symbol:   cfg.PriceSymbol,
			Interval: cfg.PricePollInterval,
			Timeout:  cfg.PriceTimeout,
			OnUpdate: opts.onPrice,
		})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to initialize price poller: %w", err)
		}
		pollCtx, cancel := context.WithCancel(ctx)
		rt.stopPoller = cancel
		rt.waitPoller = rt.poller.Start(pollCtx)
	}
	resolver, err := pricing.NewResolver(pricing.ResolverConfig{
		Feed:        rt.feed,
		Poller:      rt.poller,
		Logger:      appLogger,
		Symbol:      cfg.PriceSymbol,
		FallbackUSD: cfg.PriceFallbackUSD,
		Timeout:     cfg.PriceTimeout,
	})
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to initialize price resolver: %w", err)
	}

	// 5. Initialize Repository (Database Adapter)
	var runRepo ports.RunRepository
	if opts.withRepo {
		repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("failed to initialize database repository: %w", err)
		}
		rt.repo = repo
		runRepo = repo
	}

	// 6. Initialize Application Service
	rt.service, err = app.NewAnalysisService(cfg, appLogger, engine, resolver, runRepo)
	if err != nil {
		rt.Close()
		return nil, fmt.Errorf("failed to initialize analysis service: %w", err)
	}
	return rt, nil
}

// Close stops the price poller, releases the run store, flushes spans and syncs the logger.
func (rt *runtime) Close() {
	ctx := context.Background()
	if rt.stopPoller != nil {
		rt.stopPoller()
		rt.waitPoller()
	}
	if rt.repo != nil {
		if err := rt.repo.Close(); err != nil {
			rt.logger.Error(ctx, err, "Error closing database repository")
		}
	}
	if err := trace.Shutdown(ctx); err != nil {
		rt.logger.Error(ctx, err, "Error shutting down tracing")
	}
	_ = rt.logger.Sync()
}
