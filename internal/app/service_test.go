package app

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"journalAnalytics/config"
	"journalAnalytics/internal/analytics"
	"journalAnalytics/internal/domain"
	"journalAnalytics/internal/export"
	"journalAnalytics/internal/journal"
	"journalAnalytics/internal/ports"
	"journalAnalytics/internal/position"
	"journalAnalytics/internal/pricing"
	"journalAnalytics/internal/risk"
)

// Mock implementations
type mockLogger struct {
	mu        sync.Mutex
	debugMsgs []string
	infoMsgs  []string
	warnMsgs  []string
	errorMsgs []string
}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debugMsgs = append(m.debugMsgs, msg)
}

func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infoMsgs = append(m.infoMsgs, msg)
}

func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.warnMsgs = append(m.warnMsgs, msg)
}

func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorMsgs = append(m.errorMsgs, msg)
}

type mockFeed struct {
	mu    sync.Mutex
	price float64
	err   error
	calls int
}

func (m *mockFeed) GetTickerPrice(ctx context.Context, symbol string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.price, m.err
}

func (m *mockFeed) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockFeed) Ping(ctx context.Context) error {
	return m.err
}

type mockRunRepo struct {
	runs       []*domain.AnalysisRun
	saveErr    error
	deleteErr  error
	cutoffs    []time.Time
	latestErr  error
	findErr    error
	deleteRows int64
}

func (m *mockRunRepo) SaveRun(ctx context.Context, run *domain.AnalysisRun) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	if run.ID == "" {
		run.ID = "run-" + string(rune('a'+len(m.runs)))
	}
	m.runs = append(m.runs, run)
	return run.ID, nil
}

func (m *mockRunRepo) FindByID(ctx context.Context, id string) (*domain.AnalysisRun, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, r := range m.runs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, nil
}

func (m *mockRunRepo) FindRecent(ctx context.Context, limit int) ([]*domain.AnalysisRun, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := make([]*domain.AnalysisRun, 0, limit)
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *mockRunRepo) LatestInput(ctx context.Context) (string, error) {
	if m.latestErr != nil {
		return "", m.latestErr
	}
	if len(m.runs) == 0 {
		return "", nil
	}
	return m.runs[len(m.runs)-1].RawInput, nil
}

func (m *mockRunRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.cutoffs = append(m.cutoffs, cutoff)
	return m.deleteRows, m.deleteErr
}

const standardJournal = `[
	{"date":"2025-01-01T09:00:00Z","asset":"SOL","side":"buy","quantity":2,"price":100,"fees":0.1},
	{"date":"2025-01-01T11:00:00Z","asset":"SOL","side":"sell","quantity":1,"price":120,"fees":0.1}
]`

const roundTripJournal = `[{"pnlSol":-0.5,"solInvested":1,"solReceived":0.5,"timestamp":1700000000000,"tokenName":"FOO"}]`

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		ReplayOrder:      position.ReplayByTimestamp,
		RoundTripMode:    journal.RoundTripLegs,
		VaRConfidence:    0.95,
		Location:         time.UTC,
		ExportFormat:     export.FormatJSON,
		ExportSection:    export.SectionAll,
		PriceSymbol:      "SOLUSDT",
		PriceFallbackUSD: 1,
		PriceTimeout:     time.Second,
		PersistRuns:      true,
	}
}

type fixture struct {
	svc    *AnalysisService
	logger *mockLogger
	feed   *mockFeed
	repo   *mockRunRepo
}

func newFixture(t *testing.T, cfg *config.Config, feed *mockFeed, repo *mockRunRepo) fixture {
	t.Helper()
	logger := &mockLogger{}

	heuristics, err := risk.NewHeuristics(risk.DefaultConfig())
	require.NoError(t, err)
	engine, err := analytics.NewEngine(heuristics, analytics.Config{
		Confidence: cfg.VaRConfidence,
		Now:        func() time.Time { return fixedNow },
	})
	require.NoError(t, err)

	rc := pricing.ResolverConfig{
		Logger:      logger,
		Symbol:      cfg.PriceSymbol,
		FallbackUSD: cfg.PriceFallbackUSD,
		Timeout:     cfg.PriceTimeout,
	}
	if feed != nil {
		rc.Feed = feed
	}
	resolver, err := pricing.NewResolver(rc)
	require.NoError(t, err)

	var runRepo ports.RunRepository
	if repo != nil {
		runRepo = repo
	}
	svc, err := NewAnalysisService(cfg, logger, engine, resolver, runRepo)
	require.NoError(t, err)
	svc.now = func() time.Time { return fixedNow }

	return fixture{svc: svc, logger: logger, feed: feed, repo: repo}
}

func TestNewAnalysisService(t *testing.T) {
	logger := &mockLogger{}
	heuristics, err := risk.NewHeuristics(risk.DefaultConfig())
	require.NoError(t, err)
	engine, err := analytics.NewEngine(heuristics, analytics.Config{})
	require.NoError(t, err)
	resolver, err := pricing.NewResolver(pricing.ResolverConfig{Logger: logger, Symbol: "SOLUSDT"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		cfg      *config.Config
		logger   ports.Logger
		engine   *analytics.Engine
		resolver *pricing.Resolver
		repo     ports.RunRepository
		wantErr  bool
	}{
		{name: "valid without run history", cfg: testConfig(), logger: logger, engine: engine, resolver: resolver},
		{name: "valid with run history", cfg: testConfig(), logger: logger, engine: engine, resolver: resolver, repo: &mockRunRepo{}},
		{name: "nil config", logger: logger, engine: engine, resolver: resolver, wantErr: true},
		{name: "nil logger", cfg: testConfig(), engine: engine, resolver: resolver, wantErr: true},
		{name: "nil engine", cfg: testConfig(), logger: logger, resolver: resolver, wantErr: true},
		{name: "nil resolver", cfg: testConfig(), logger: logger, engine: engine, wantErr: true},
		{
			name: "negative retention",
			cfg: func() *config.Config {
				c := testConfig()
				c.RunRetentionDays = -1
				return c
			}(),
			logger: logger, engine: engine, resolver: resolver, wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logger ports.Logger
			if tt.logger != nil {
				logger = tt.logger
			}
			svc, err := NewAnalysisService(tt.cfg, logger, tt.engine, tt.resolver, tt.repo)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestAnalysisService_Detect(t *testing.T) {
	f := newFixture(t, testConfig(), nil, nil)
	ctx := context.Background()

	format, err := f.svc.Detect(ctx, []byte(standardJournal))
	require.NoError(t, err)
	assert.Equal(t, domain.FormatStandardTrades, format)

	format, err = f.svc.Detect(ctx, []byte(roundTripJournal))
	require.NoError(t, err)
	assert.Equal(t, domain.FormatRoundTrip, format)

	_, err = f.svc.Detect(ctx, []byte("not json"))
	assert.ErrorIs(t, err, ports.ErrParse)
}

func TestAnalysisService_Analyze_StandardTrades(t *testing.T) {
	repo := &mockRunRepo{}
	f := newFixture(t, testConfig(), nil, repo)

	report, err := f.svc.Analyze(context.Background(), []byte(standardJournal))
	require.NoError(t, err)

	assert.Equal(t, domain.FormatStandardTrades, report.Format)
	assert.Equal(t, domain.DenomQuote, report.Denomination)
	assert.Equal(t, 1.0, report.PriceUSD)
	require.Len(t, report.Entries, 2)
	assert.InDelta(t, 19.9, report.Entries[1].RealizedPnL, 1e-9)
	assert.InDelta(t, 19.9, report.Summary.TotalPnL, 1e-9)
	assert.Equal(t, fixedNow, report.GeneratedAt)

	require.Len(t, report.OpenPositions, 1)
	assert.Equal(t, domain.AssetPosition{Asset: "SOL", OpenQuantity: 1, AverageCost: 100}, report.OpenPositions[0])
	assert.Zero(t, report.OverSells)

	// The standard path never asks for a price.
	assert.Empty(t, f.logger.warnMsgs)

	require.Len(t, repo.runs, 1)
	run := repo.runs[0]
	assert.Equal(t, standardJournal, run.RawInput)
	assert.Equal(t, 2, run.TradeCount)
	assert.InDelta(t, 19.9, run.TotalPnL, 1e-9)
	assert.Equal(t, fixedNow, run.CreatedAt)
	assert.Contains(t, run.ReportJSON, `"trades"`)
	assert.Contains(t, f.logger.infoMsgs, "Analysis run saved")
	assert.Empty(t, repo.cutoffs, "no retention configured")
}

func TestAnalysisService_Analyze_OverSellIsWarned(t *testing.T) {
	f := newFixture(t, testConfig(), nil, nil)
	input := `[
		{"date":"2025-01-01T09:00:00Z","asset":"SOL","side":"buy","quantity":3,"price":10},
		{"date":"2025-01-01T10:00:00Z","asset":"SOL","side":"sell","quantity":10,"price":12}
	]`

	report, err := f.svc.Analyze(context.Background(), []byte(input))
	require.NoError(t, err)

	assert.InDelta(t, 6.0, report.Summary.TotalPnL, 1e-9)
	assert.Equal(t, 1, report.OverSells)
	assert.Empty(t, report.OpenPositions)
	assert.Contains(t, f.logger.warnMsgs, "Sell exceeds open position, closing what is held")
}

func TestAnalysisService_Analyze_ReplayOrder(t *testing.T) {
	input := `[
		{"date":"2025-01-02T00:00:00Z","asset":"ETH","side":"sell","quantity":1,"price":150},
		{"date":"2025-01-01T00:00:00Z","asset":"ETH","side":"buy","quantity":1,"price":100}
	]`

	byTime := newFixture(t, testConfig(), nil, nil)
	report, err := byTime.svc.Analyze(context.Background(), []byte(input))
	require.NoError(t, err)
	assert.InDelta(t, 50.0, report.Summary.TotalPnL, 1e-9)
	assert.Zero(t, report.OverSells)

	cfg := testConfig()
	cfg.ReplayOrder = position.ReplayInputOrder
	byInput := newFixture(t, cfg, nil, nil)
	report, err = byInput.svc.Analyze(context.Background(), []byte(input))
	require.NoError(t, err)
	assert.Equal(t, 0.0, report.Summary.TotalPnL)
	assert.Equal(t, 1, report.OverSells)
}

func TestAnalysisService_Analyze_RoundTrip(t *testing.T) {
	t.Run("live price scales the series", func(t *testing.T) {
		feed := &mockFeed{price: 150}
		f := newFixture(t, testConfig(), feed, nil)

		report, err := f.svc.Analyze(context.Background(), []byte(roundTripJournal))
		require.NoError(t, err)

		assert.Equal(t, domain.FormatRoundTrip, report.Format)
		assert.Equal(t, domain.DenomSOL, report.Denomination)
		assert.Equal(t, 150.0, report.PriceUSD)
		assert.Equal(t, 1, feed.calls)
		require.Len(t, report.Entries, 2)
		require.Contains(t, report.Aggregates.Assets, "FOO")
		assert.InDelta(t, -0.5, report.Aggregates.Assets["FOO"].TotalPnL, 1e-9)
		assert.Equal(t, 0.0, report.Aggregates.Assets["FOO"].WinRate)
		assert.Empty(t, report.OpenPositions)
	})

	t.Run("feed failure falls back", func(t *testing.T) {
		feed := &mockFeed{err: ports.ErrFeedUnavailable}
		cfg := testConfig()
		cfg.PriceFallbackUSD = 2
		f := newFixture(t, cfg, feed, nil)

		report, err := f.svc.Analyze(context.Background(), []byte(roundTripJournal))
		require.NoError(t, err)
		assert.Equal(t, 2.0, report.PriceUSD)
		assert.Contains(t, f.logger.warnMsgs, "Price feed failed, using fallback price")
	})

	t.Run("single event mode", func(t *testing.T) {
		cfg := testConfig()
		cfg.RoundTripMode = journal.RoundTripSingle
		f := newFixture(t, cfg, nil, nil)

		report, err := f.svc.Analyze(context.Background(), []byte(roundTripJournal))
		require.NoError(t, err)
		require.Len(t, report.Entries, 1)
		assert.Equal(t, 1.0, report.PriceUSD)
		assert.InDelta(t, -0.5, report.Summary.TotalPnL, 1e-9)
	})
}

func TestAnalysisService_Price(t *testing.T) {
	feed := &mockFeed{price: 142.5}
	f := newFixture(t, testConfig(), feed, nil)

	q := f.svc.Price(context.Background())
	assert.Equal(t, "SOLUSDT", q.Symbol)
	assert.Equal(t, 142.5, q.Price)
	assert.Equal(t, pricing.SourceLive, q.Source)
	assert.NoError(t, q.Err)

	feed.err = ports.ErrRateLimited
	q = f.svc.Price(context.Background())
	assert.Equal(t, 1.0, q.Price)
	assert.Equal(t, pricing.SourceFallback, q.Source)
	assert.ErrorIs(t, q.Err, ports.ErrRateLimited)
}

func TestAnalysisService_AnalyzeUsesRunningPoller(t *testing.T) {
	logger := &mockLogger{}
	feed := &mockFeed{price: 175}
	poller, err := pricing.NewPoller(pricing.PollerConfig{
		Feed:     feed,
		Logger:   logger,
		Symbol:   "SOLUSDT",
		Interval: time.Hour,
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	wait := poller.Start(ctx)
	defer func() {
		cancel()
		wait()
		assert.False(t, poller.Running())
	}()

	cfg := testConfig()
	heuristics, err := risk.NewHeuristics(risk.DefaultConfig())
	require.NoError(t, err)
	engine, err := analytics.NewEngine(heuristics, analytics.Config{Now: func() time.Time { return fixedNow }})
	require.NoError(t, err)
	resolver, err := pricing.NewResolver(pricing.ResolverConfig{
		Feed:    feed,
		Poller:  poller,
		Logger:  logger,
		Symbol:  cfg.PriceSymbol,
		Timeout: time.Second,
	})
	require.NoError(t, err)
	svc, err := NewAnalysisService(cfg, logger, engine, resolver, nil)
	require.NoError(t, err)

	report, err := svc.Analyze(context.Background(), []byte(roundTripJournal))
	require.NoError(t, err)
	assert.Equal(t, 175.0, report.PriceUSD)
	assert.Equal(t, domain.DenomSOL, report.Denomination)

	q := svc.Price(context.Background())
	assert.Equal(t, pricing.SourcePoller, q.Source)
	assert.Equal(t, 1, feed.Calls(), "the resolver reuses the poller value instead of calling the feed")
}

func TestAnalysisService_Analyze_InputErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{name: "not json", input: "{", wantErr: ports.ErrParse},
		{name: "empty array", input: "[]", wantErr: ports.ErrParse},
		{name: "unknown shape", input: `[{"foo":1}]`, wantErr: ports.ErrFormat},
		{
			name:    "notional overflow",
			input:   `[{"date":"2025-01-01","asset":"SOL","side":"buy","quantity":1e200,"price":1e200},{"date":"2025-01-02","asset":"SOL","side":"sell","quantity":1e200,"price":2e200}]`,
			wantErr: ports.ErrValidation,
		},
		{
			name:    "invalid element",
			input:   `[{"date":"2025-01-01","asset":"SOL","side":"hold","quantity":1,"price":1}]`,
			wantErr: ports.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockRunRepo{}
			f := newFixture(t, testConfig(), nil, repo)

			report, err := f.svc.Analyze(context.Background(), []byte(tt.input))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, report)
			assert.Empty(t, repo.runs)
		})
	}
}

func TestAnalysisService_Analyze_Persistence(t *testing.T) {
	t.Run("disabled by config", func(t *testing.T) {
		repo := &mockRunRepo{}
		cfg := testConfig()
		cfg.PersistRuns = false
		f := newFixture(t, cfg, nil, repo)

		_, err := f.svc.Analyze(context.Background(), []byte(standardJournal))
		require.NoError(t, err)
		assert.Empty(t, repo.runs)
	})

	t.Run("save failure keeps the report", func(t *testing.T) {
		repo := &mockRunRepo{saveErr: ports.ErrQueryFailed}
		f := newFixture(t, testConfig(), nil, repo)

		report, err := f.svc.Analyze(context.Background(), []byte(standardJournal))
		require.NoError(t, err)
		assert.NotNil(t, report)
		assert.Contains(t, f.logger.errorMsgs, "Failed to save analysis run")
	})

	t.Run("retention prunes old runs", func(t *testing.T) {
		repo := &mockRunRepo{deleteRows: 3}
		cfg := testConfig()
		cfg.RunRetentionDays = 7
		f := newFixture(t, cfg, nil, repo)

		_, err := f.svc.Analyze(context.Background(), []byte(standardJournal))
		require.NoError(t, err)
		require.Len(t, repo.cutoffs, 1)
		assert.Equal(t, fixedNow.AddDate(0, 0, -7), repo.cutoffs[0])
		assert.Contains(t, f.logger.infoMsgs, "Pruned old analysis runs")
	})

	t.Run("prune failure is logged", func(t *testing.T) {
		repo := &mockRunRepo{deleteErr: ports.ErrDeleteFailed}
		cfg := testConfig()
		cfg.RunRetentionDays = 1
		f := newFixture(t, cfg, nil, repo)

		_, err := f.svc.Analyze(context.Background(), []byte(standardJournal))
		require.NoError(t, err)
		assert.Len(t, repo.runs, 1)
		assert.Contains(t, f.logger.errorMsgs, "Failed to prune old analysis runs")
	})
}

func TestAnalysisService_Analyze_IsDeterministic(t *testing.T) {
	f := newFixture(t, testConfig(), nil, nil)
	first, err := f.svc.Analyze(context.Background(), []byte(standardJournal))
	require.NoError(t, err)
	second, err := f.svc.Analyze(context.Background(), []byte(standardJournal))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestAnalysisService_Export(t *testing.T) {
	f := newFixture(t, testConfig(), nil, nil)
	ctx := context.Background()
	report, err := f.svc.Analyze(ctx, []byte(standardJournal))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.svc.Export(ctx, &buf, report, export.FormatCSV, export.SectionSummary))
	assert.Contains(t, buf.String(), "Total PnL,19.90")

	buf.Reset()
	require.NoError(t, f.svc.Export(ctx, &buf, report, export.FormatMarkdown, export.SectionAll))
	assert.Contains(t, buf.String(), "EXECUTIVE SUMMARY")

	err = f.svc.Export(ctx, &buf, report, export.Format("xml"), export.SectionAll)
	assert.Error(t, err)

	err = f.svc.Export(ctx, &buf, nil, export.FormatJSON, export.SectionAll)
	assert.Error(t, err)
}

func TestAnalysisService_RunHistory(t *testing.T) {
	ctx := context.Background()

	t.Run("without a repository", func(t *testing.T) {
		f := newFixture(t, testConfig(), nil, nil)

		_, err := f.svc.RecentRuns(ctx, 5)
		assert.ErrorIs(t, err, ports.ErrConfigurationError)
		_, err = f.svc.LastInput(ctx)
		assert.ErrorIs(t, err, ports.ErrConfigurationError)
		_, err = f.svc.Run(ctx, "x")
		assert.ErrorIs(t, err, ports.ErrConfigurationError)
	})

	t.Run("with stored runs", func(t *testing.T) {
		repo := &mockRunRepo{}
		f := newFixture(t, testConfig(), nil, repo)

		last, err := f.svc.LastInput(ctx)
		require.NoError(t, err)
		assert.Equal(t, "", last)

		_, err = f.svc.Analyze(ctx, []byte(standardJournal))
		require.NoError(t, err)
		_, err = f.svc.Analyze(ctx, []byte(roundTripJournal))
		require.NoError(t, err)

		runs, err := f.svc.RecentRuns(ctx, 10)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, domain.FormatRoundTrip, runs[0].Format)
		assert.Equal(t, domain.DenomSOL, runs[0].Denomination)

		last, err = f.svc.LastInput(ctx)
		require.NoError(t, err)
		assert.Equal(t, roundTripJournal, last)

		run, err := f.svc.Run(ctx, runs[1].ID)
		require.NoError(t, err)
		assert.Equal(t, domain.FormatStandardTrades, run.Format)

		_, err = f.svc.Run(ctx, "missing")
		assert.ErrorIs(t, err, ports.ErrNotFound)
	})

	t.Run("repository errors are wrapped", func(t *testing.T) {
		repo := &mockRunRepo{findErr: ports.ErrQueryFailed, latestErr: ports.ErrQueryFailed}
		f := newFixture(t, testConfig(), nil, repo)

		_, err := f.svc.RecentRuns(ctx, 1)
		assert.True(t, errors.Is(err, ports.ErrQueryFailed))
		_, err = f.svc.LastInput(ctx)
		assert.True(t, errors.Is(err, ports.ErrQueryFailed))
	})
}
