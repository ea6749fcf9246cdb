package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"journalAnalytics/config"
	"journalAnalytics/internal/adapters/binanceclient"
	"journalAnalytics/internal/adapters/logger"
	"journalAnalytics/internal/pricing"
	"journalAnalytics/internal/utils"
)

func main() {
	samples := flag.Int("n", 10, "Number of price samples to collect")
	outDir := flag.String("out", "data", "Directory for the CSV file")
	flag.Parse()

	if *samples <= 0 {
		log.Fatalf("FATAL: -n must be positive, got %d", *samples)
	}

	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger, err := logger.NewZapLogger(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String()})

	// 3. Initialize Price Feed (Binance Adapter)
	binanceClient, err := binanceclient.New(binanceclient.Config{
		UseTestnet: cfg.IsTestnet,
		Logger:     appLogger,
	})
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize Binance client")
		log.Fatalf("FATAL: Failed to initialize Binance client: %v", err)
	}
	if err := binanceClient.Ping(context.Background()); err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Binance price feed is unreachable")
		log.Fatalf("FATAL: Binance price feed is unreachable: %v", err)
	}
	appLogger.Info(context.Background(), "Binance client initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	// 4. Poll until enough samples are collected
	quotes := make([]pricing.Quote, 0, *samples)
	poller, err := pricing.NewPoller(pricing.PollerConfig{
		Feed:     binanceClient,
		Logger:   appLogger,
		Symbol:   cfg.PriceSymbol,
		Interval: cfg.PricePollInterval,
		Timeout:  cfg.PriceTimeout,
		OnUpdate: func(price float64, at time.Time) {
			quotes = append(quotes, pricing.Quote{Symbol: cfg.PriceSymbol, Price: price, Source: pricing.SourceLive, At: at})
			fmt.Printf("%d/%d %s %s %.4f\n", len(quotes), *samples, at.Local().Format("15:04:05"), cfg.PriceSymbol, price)
			if len(quotes) >= *samples {
				cancel()
			}
		},
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize price poller: %v", err)
	}

	fmt.Printf("Sampling %s every %s...\n", cfg.PriceSymbol, cfg.PricePollInterval)
	_ = poller.Run(ctx)
	if len(quotes) == 0 {
		log.Fatalf("No prices collected (%d failed polls)", poller.Failures())
	}

	filename := fmt.Sprintf("%s/%s_prices_%s.csv", *outDir, cfg.PriceSymbol, time.Now().Format("20060102_150405"))
	if err := utils.WriteQuotesToCSV(quotes, filename); err != nil {
		appLogger.Error(context.Background(), err, "Error writing CSV")
		log.Fatalf("Error writing CSV: %v", err)
	}
	appLogger.Info(context.Background(), "Saved to", map[string]interface{}{"filename": filename, "samples": len(quotes)})
}
