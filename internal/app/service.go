package app

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"journalAnalytics/config"
	"journalAnalytics/internal/analytics"
	"journalAnalytics/internal/domain"
	"journalAnalytics/internal/export"
	"journalAnalytics/internal/journal"
	"journalAnalytics/internal/ports"
	"journalAnalytics/internal/position"
	"journalAnalytics/internal/pricing"
	"journalAnalytics/internal/trace"
)

// AnalysisService orchestrates one analyze action: parse, normalize, replay, price, build and persist.
type AnalysisService struct {
	cfg      *config.Config
	logger   ports.Logger
	engine   *analytics.Engine
	resolver *pricing.Resolver
	runRepo  ports.RunRepository // Optional, nil disables run history
	now      func() time.Time
}

// NewAnalysisService creates a new application service instance.
// runRepo may be nil when runs are not persisted.
func NewAnalysisService(
	cfg *config.Config,
	logger ports.Logger,
	engine *analytics.Engine,
	resolver *pricing.Resolver,
	runRepo ports.RunRepository,
) (*AnalysisService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || engine == nil || resolver == nil {
		return nil, fmt.Errorf("missing required dependencies for AnalysisService")
	}

	// Validate config values needed by service
	if cfg.RoundTripLegFee < 0 {
		return nil, fmt.Errorf("configuration RoundTripLegFee cannot be negative")
	}
	if cfg.RunRetentionDays < 0 {
		return nil, fmt.Errorf("configuration RunRetentionDays cannot be negative")
	}

	return &AnalysisService{
		cfg:      cfg,
		logger:   logger,
		engine:   engine,
		resolver: resolver,
		runRepo:  runRepo,
		now:      time.Now,
	}, nil
}

// Detect classifies a raw journal without validating or normalizing it.
func (s *AnalysisService) Detect(ctx context.Context, raw []byte) (domain.InputFormat, error) {
	ctx, span := trace.StartSpan(ctx, "AnalysisService.Detect")
	defer span.End()

	format, err := journal.Detect(raw)
	if err != nil {
		trace.RecordError(span, err)
		s.logger.Debug(ctx, "Journal detection failed", map[string]interface{}{"error": err.Error()})
		return format, err
	}
	s.logger.Debug(ctx, "Journal format detected", map[string]interface{}{"format": string(format)})
	return format, nil
}

// Analyze runs the full pipeline over a raw journal and returns the report.
// Input errors (parse, format, validation) are returned as is; a failing run store only logs.
func (s *AnalysisService) Analyze(ctx context.Context, raw []byte) (*analytics.Report, error) {
	ctx, span := trace.StartSpan(ctx, "AnalysisService.Analyze")
	defer span.End()

	// --- Pipeline Steps ---
	// 1. Parse and normalize
	format, entries, err := s.load(ctx, raw)
	if err != nil {
		trace.RecordError(span, err)
		return nil, err
	}

	in := analytics.BuildInput{
		Format:       format,
		Denomination: domain.DenomQuote,
		Entries:      entries,
	}

	// 2. Replay standard trades through the position book
	if format == domain.FormatStandardTrades {
		s.replay(ctx, &in)
	}

	// 3. Resolve the base asset price for round-trip journals
	if format == domain.FormatRoundTrip {
		in.Denomination = domain.DenomSOL
		in.PriceUSD = s.resolvePrice(ctx)
	}

	// 4. Build aggregates and statistics
	_, buildSpan := trace.StartSpan(ctx, "AnalysisService.Build")
	report := s.engine.Build(in)
	buildSpan.End()
	s.logger.Debug(ctx, "Report built", map[string]interface{}{
		"entries":   len(report.Entries),
		"totalPnl":  report.Summary.TotalPnL,
		"riskScore": report.Insights.RiskScore,
	})

	// 5. Persist the run
	if s.runRepo != nil && s.cfg.PersistRuns {
		s.persist(ctx, raw, report)
	}

	return report, nil
}

func (s *AnalysisService) load(ctx context.Context, raw []byte) (domain.InputFormat, []domain.LedgerEntry, error) {
	ctx, span := trace.StartSpan(ctx, "AnalysisService.Load")
	defer span.End()

	opts := journal.NormalizeOptions{
		RoundTripMode: s.cfg.RoundTripMode,
		LegFee:        s.cfg.RoundTripLegFee,
	}
	format, entries, err := journal.Load(raw, opts)
	if err != nil {
		trace.RecordError(span, err)
		s.logger.Debug(ctx, "Journal rejected", map[string]interface{}{
			"format": string(format),
			"error":  err.Error(),
		})
		return format, nil, err
	}
	s.logger.Debug(ctx, "Journal normalized", map[string]interface{}{
		"format":  string(format),
		"entries": len(entries),
		"mode":    s.cfg.RoundTripMode.String(),
	})
	return format, entries, nil
}

func (s *AnalysisService) replay(ctx context.Context, in *analytics.BuildInput) {
	ctx, span := trace.StartSpan(ctx, "AnalysisService.Replay")
	defer span.End()

	res := position.Replay(in.Entries, s.cfg.ReplayOrder)
	for _, o := range res.OverSells {
		s.logger.Warn(ctx, "Sell exceeds open position, closing what is held", map[string]interface{}{
			"index":     o.Index,
			"asset":     o.Asset,
			"timestamp": o.Timestamp,
			"requested": o.Requested,
			"held":      o.Held,
			"excess":    o.Excess,
		})
	}

	in.Entries = res.Entries
	in.OpenPositions = res.Book.Open()
	in.OverSells = len(res.OverSells)
	s.logger.Debug(ctx, "Positions replayed", map[string]interface{}{
		"order":         s.cfg.ReplayOrder.String(),
		"openPositions": len(in.OpenPositions),
		"overSells":     in.OverSells,
	})
}

func (s *AnalysisService) resolvePrice(ctx context.Context) float64 {
	return s.Price(ctx).Price
}

// Price resolves the base asset USD price, falling back to the configured price when the feed fails.
func (s *AnalysisService) Price(ctx context.Context) pricing.Quote {
	ctx, span := trace.StartSpan(ctx, "AnalysisService.ResolvePrice")
	defer span.End()

	q := s.resolver.Resolve(ctx)
	if q.Err != nil {
		trace.RecordError(span, q.Err)
	}
	s.logger.Debug(ctx, "Base asset price resolved", map[string]interface{}{
		"symbol": q.Symbol,
		"price":  q.Price,
		"source": string(q.Source),
	})
	return q
}

func (s *AnalysisService) persist(ctx context.Context, raw []byte, report *analytics.Report) {
	ctx, span := trace.StartSpan(ctx, "AnalysisService.Persist")
	defer span.End()

	var buf bytes.Buffer
	if err := export.WriteJSON(&buf, report); err != nil {
		trace.RecordError(span, err)
		s.logger.Error(ctx, err, "Failed to encode report for run history")
		return
	}

	run := &domain.AnalysisRun{
		CreatedAt:    report.GeneratedAt,
		Format:       report.Format,
		Denomination: report.Denomination,
		RawInput:     string(raw),
		TradeCount:   len(report.Entries),
		TotalPnL:     report.Summary.TotalPnL,
		ReportJSON:   buf.String(),
	}
	id, err := s.runRepo.SaveRun(ctx, run)
	if err != nil {
		trace.RecordError(span, err)
		s.logger.Error(ctx, err, "Failed to save analysis run")
		return
	}
	s.logger.Info(ctx, "Analysis run saved", map[string]interface{}{"runId": id, "format": string(run.Format)})

	if s.cfg.RunRetentionDays > 0 {
		cutoff := s.now().AddDate(0, 0, -s.cfg.RunRetentionDays)
		deleted, err := s.runRepo.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			s.logger.Error(ctx, err, "Failed to prune old analysis runs", map[string]interface{}{"cutoff": cutoff})
			return
		}
		if deleted > 0 {
			s.logger.Info(ctx, "Pruned old analysis runs", map[string]interface{}{"deleted": deleted})
		}
	}
}

// Export writes a report in the requested format.
func (s *AnalysisService) Export(ctx context.Context, w io.Writer, report *analytics.Report, format export.Format, section export.Section) error {
	ctx, span := trace.StartSpan(ctx, "AnalysisService.Export")
	defer span.End()

	if err := export.Write(w, report, format, section); err != nil {
		trace.RecordError(span, err)
		return fmt.Errorf("failed to export report as %s: %w", format, err)
	}
	s.logger.Debug(ctx, "Report exported", map[string]interface{}{
		"format":  string(format),
		"section": string(section),
	})
	return nil
}

// RecentRuns lists stored runs, newest first.
func (s *AnalysisService) RecentRuns(ctx context.Context, limit int) ([]*domain.AnalysisRun, error) {
	if s.runRepo == nil {
		return nil, fmt.Errorf("run history is not configured: %w", ports.ErrConfigurationError)
	}
	runs, err := s.runRepo.FindRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent runs: %w", err)
	}
	return runs, nil
}

// LastInput returns the journal text of the latest stored run, "" when there is none.
func (s *AnalysisService) LastInput(ctx context.Context) (string, error) {
	if s.runRepo == nil {
		return "", fmt.Errorf("run history is not configured: %w", ports.ErrConfigurationError)
	}
	raw, err := s.runRepo.LatestInput(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load last input: %w", err)
	}
	return raw, nil
}

// Run looks up one stored run.
func (s *AnalysisService) Run(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	if s.runRepo == nil {
		return nil, fmt.Errorf("run history is not configured: %w", ports.ErrConfigurationError)
	}
	run, err := s.runRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load run %s: %w", id, err)
	}
	if run == nil {
		return nil, fmt.Errorf("run %s: %w", id, ports.ErrNotFound)
	}
	return run, nil
}
