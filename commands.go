package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"journalAnalytics/config"
	"journalAnalytics/internal/export"
	"journalAnalytics/internal/position"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		format   string
		section  string
		out      string
		order    string
		zeroFill bool
		solPrice float64
		noSave   bool
		last     bool
	)

	cmd := &cobra.Command{
		Use:   "analyze [file|-]",
		Short: "Analyze a JSON trade journal and export the report",
		Long: `Analyze reads a standard trade list or a round-trip journal (a file, or stdin when
the argument is "-" or missing), replays positions, computes statistics and writes
the report as JSON, CSV or Markdown.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			// Flags override the environment
			flags := cmd.Flags()
			if flags.Changed("format") {
				if cfg.ExportFormat, err = export.ParseFormat(format); err != nil {
					return err
				}
			}
			if flags.Changed("section") {
				if cfg.ExportSection, err = export.ParseSection(section); err != nil {
					return err
				}
			}
			if flags.Changed("order") {
				if cfg.ReplayOrder, err = position.ParseReplayOrder(order); err != nil {
					return err
				}
			}
			if flags.Changed("zero-fill") {
				cfg.ZeroFillDays = zeroFill
			}
			if flags.Changed("sol-price") {
				if solPrice <= 0 {
					return fmt.Errorf("--sol-price must be positive, got %v", solPrice)
				}
				cfg.PriceFallbackUSD = solPrice
				cfg.UseLivePrice = false
			}
			if noSave {
				cfg.PersistRuns = false
			}

			rt, err := bootstrap(cfg, bootstrapOptions{withRepo: cfg.PersistRuns || last})
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := signalContext(rt)
			defer cancel()

			var raw []byte
			if last {
				input, err := rt.service.LastInput(ctx)
				if err != nil {
					return err
				}
				if input == "" {
					return fmt.Errorf("no stored journal to re-analyze")
				}
				raw = []byte(input)
			} else {
				raw, err = readInput(cmd.InOrStdin(), args)
				if err != nil {
					return err
				}
			}

			report, err := rt.service.Analyze(ctx, raw)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create output file '%s': %w", out, err)
				}
				defer f.Close()
				w = f
			}
			if err := rt.service.Export(ctx, w, report, cfg.ExportFormat, cfg.ExportSection); err != nil {
				return err
			}
			if out != "" {
				rt.logger.Info(ctx, "Report written", map[string]interface{}{"file": out, "format": string(cfg.ExportFormat)})
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&format, "format", "f", "json", "Output format: json, csv or markdown")
	f.StringVarP(&section, "section", "s", "all", "CSV section: all, trades, summary, insights, monthly, assets or risk")
	f.StringVarP(&out, "out", "o", "", "Write the report to this file instead of stdout")
	f.StringVar(&order, "order", "timestamp", "Position replay order: timestamp or input")
	f.BoolVar(&zeroFill, "zero-fill", false, "Include days without trades as zero-PnL days")
	f.Float64Var(&solPrice, "sol-price", 0, "Fixed USD price of the base asset, disables the live feed")
	f.BoolVar(&noSave, "no-save", false, "Do not store this run in the history database")
	f.BoolVar(&last, "last", false, "Re-analyze the journal of the most recent stored run")
	return cmd
}

func newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [file|-]",
		Short: "Print the detected journal format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cfg.UseLivePrice = false
			rt, err := bootstrap(cfg, bootstrapOptions{})
			if err != nil {
				return err
			}
			defer rt.Close()

			raw, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			format, err := rt.service.Detect(context.Background(), raw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), format)
			return nil
		},
	}
}

func newRunsCmd() *cobra.Command {
	var (
		limit int
		show  string
	)

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored analysis runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			cfg.UseLivePrice = false
			rt, err := bootstrap(cfg, bootstrapOptions{withRepo: true})
			if err != nil {
				return err
			}
			defer rt.Close()
			ctx := context.Background()

			if show != "" {
				run, err := rt.service.Run(ctx, show)
				if err != nil {
					return err
				}
				_, err = io.WriteString(cmd.OutOrStdout(), run.ReportJSON)
				return err
			}

			runs, err := rt.service.RecentRuns(ctx, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs stored yet.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
			fmt.Fprintln(w, "ID\tCreated\tFormat\tUnit\tTrades\tTotalPnL\t")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4f\t\n",
					r.ID,
					r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					r.Format,
					r.Denomination,
					r.TradeCount,
					r.TotalPnL,
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	cmd.Flags().StringVar(&show, "show", "", "Print the stored JSON report of this run ID")
	return cmd
}

func newPriceCmd() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "price",
		Short: "Print the base asset USD price used for round-trip journals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			opts := bootstrapOptions{}
			if watch {
				cfg.UseLivePrice = true
				opts.onPrice = func(price float64, at time.Time) {
					fmt.Fprintf(out, "%s %s %.4f\n", at.Local().Format("15:04:05"), cfg.PriceSymbol, price)
				}
			}
			rt, err := bootstrap(cfg, opts)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx, cancel := signalContext(rt)
			defer cancel()

			if !watch {
				q := rt.service.Price(ctx)
				fmt.Fprintf(out, "%s %.4f (%s)\n", q.Symbol, q.Price, q.Source)
				return nil
			}

			// The background poller prints every update until interrupted
			<-ctx.Done()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Poll the live feed until interrupted")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "journal-analytics %s (built %s)\n", Version, BuildTime)
		},
	}
}

// readInput returns the journal text from the named file, or stdin for "-" or no argument.
func readInput(stdin io.Reader, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read journal from stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read journal file '%s': %w", args[0], err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("journal file '%s' is empty", args[0])
	}
	return data, nil
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext(rt *runtime) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			rt.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
