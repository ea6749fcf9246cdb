package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"journalAnalytics/config"
	"journalAnalytics/internal/adapters/logger"
	"journalAnalytics/internal/adapters/sqlite"
	"journalAnalytics/internal/domain"
)

func main() {
	limit := flag.Int("n", 500, "Number of most recent runs to analyze")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}
	appLogger, err := logger.NewZapLogger(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: cfg.DBPath, Logger: appLogger})
	if err != nil {
		log.Fatalf("FATAL: Failed to open run history: %v", err)
	}
	defer repo.Close()

	runs, err := repo.FindRecent(context.Background(), *limit)
	if err != nil {
		log.Fatalf("Error loading runs: %v", err)
	}
	if len(runs) == 0 {
		log.Println("No runs found. Analyze a journal with run history enabled first.")
		return
	}

	// Create a tabwriter for formatted output
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight|tabwriter.Debug)
	fmt.Fprintln(w, "Format\tUnit\tRuns\tTrades\tProfitable%\tAvgPnL\tBestPnL\tWorstPnL\t")

	groups := groupRuns(runs)
	for _, key := range sortedGroupKeys(groups) {
		stats := calculateRunStats(groups[key])
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%.4f\t%.4f\t%.4f\t\n",
			key.format,
			key.denomination,
			stats.Runs,
			stats.TotalTrades,
			stats.ProfitableRate*100,
			stats.AvgPnL,
			stats.BestPnL,
			stats.WorstPnL,
		)
	}
	w.Flush()

	fmt.Printf("\n%d runs between %s and %s\n",
		len(runs),
		runs[len(runs)-1].CreatedAt.Local().Format("2006-01-02 15:04"),
		runs[0].CreatedAt.Local().Format("2006-01-02 15:04"),
	)
}

type groupKey struct {
	format       domain.InputFormat
	denomination domain.Denomination
}

// RunStats holds statistics about a set of analysis runs
type RunStats struct {
	Runs           int
	TotalTrades    int
	ProfitableRate float64
	AvgPnL         float64
	BestPnL        float64
	WorstPnL       float64
}

func groupRuns(runs []*domain.AnalysisRun) map[groupKey][]*domain.AnalysisRun {
	groups := make(map[groupKey][]*domain.AnalysisRun)
	for _, r := range runs {
		k := groupKey{format: r.Format, denomination: r.Denomination}
		groups[k] = append(groups[k], r)
	}
	return groups
}

func sortedGroupKeys(groups map[groupKey][]*domain.AnalysisRun) []groupKey {
	keys := make([]groupKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].format != keys[j].format {
			return keys[i].format < keys[j].format
		}
		return keys[i].denomination < keys[j].denomination
	})
	return keys
}

// calculateRunStats calculates statistics for a set of runs
func calculateRunStats(runs []*domain.AnalysisRun) RunStats {
	var stats RunStats
	stats.Runs = len(runs)
	if stats.Runs == 0 {
		return stats
	}

	var totalPnL float64
	profitable := 0
	for i, r := range runs {
		stats.TotalTrades += r.TradeCount
		totalPnL += r.TotalPnL
		if r.TotalPnL > 0 {
			profitable++
		}
		if i == 0 || r.TotalPnL > stats.BestPnL {
			stats.BestPnL = r.TotalPnL
		}
		if i == 0 || r.TotalPnL < stats.WorstPnL {
			stats.WorstPnL = r.TotalPnL
		}
	}
	stats.AvgPnL = totalPnL / float64(stats.Runs)
	stats.ProfitableRate = float64(profitable) / float64(stats.Runs)
	return stats
}
