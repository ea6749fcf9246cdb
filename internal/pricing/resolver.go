package pricing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"journalAnalytics/internal/ports"
)

const (
	// DefaultFallbackUSD is used when no live price can be obtained.
	DefaultFallbackUSD = 1.0
	defaultTimeout     = 5 * time.Second
)

// Source tells where a quote came from.
type Source string

const (
	SourceLive     Source = "live"
	SourcePoller   Source = "poller"
	SourceFallback Source = "fallback"
)

// Quote is a resolved USD price of the base asset.
type Quote struct {
	Symbol string
	Price  float64
	Source Source
	At     time.Time
	Err    error // Feed error that caused a fallback, nil otherwise
}

// ResolverConfig configures NewResolver.
type ResolverConfig struct {
	Feed        ports.PriceFeed // Optional; without a feed every quote is the fallback
	Poller      *Poller         // Optional; a fresh poller value is used before calling the feed
	Logger      ports.Logger
	Symbol      string        // e.g. "SOLUSDT"
	FallbackUSD float64       // Defaults to 1
	Timeout     time.Duration // Per request, defaults to 5s
	MaxAge      time.Duration // Oldest poller value accepted, defaults to two poll intervals
}

// Resolver fetches the base asset price and degrades to a fixed fallback on failure.
type Resolver struct {
	cfg ResolverConfig
	now func() time.Time
}

// NewResolver validates cfg and creates a Resolver.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for price resolver")
	}
	cfg.Symbol = strings.ToUpper(strings.TrimSpace(cfg.Symbol))
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("price symbol cannot be empty: %w", ports.ErrConfigurationError)
	}
	if cfg.FallbackUSD == 0 {
		cfg.FallbackUSD = DefaultFallbackUSD
	}
	if cfg.FallbackUSD < 0 {
		return nil, fmt.Errorf("fallback price must be positive, got %v: %w", cfg.FallbackUSD, ports.ErrConfigurationError)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxAge <= 0 && cfg.Poller != nil {
		cfg.MaxAge = 2 * cfg.Poller.Interval()
	}
	return &Resolver{cfg: cfg, now: time.Now}, nil
}

// Symbol returns the ticker symbol being resolved.
func (r *Resolver) Symbol() string {
	return r.cfg.Symbol
}

// Resolve never fails: feed errors are logged and the fallback price is returned.
func (r *Resolver) Resolve(ctx context.Context) Quote {
	if q, ok := r.fromPoller(ctx); ok {
		return q
	}
	if r.cfg.Feed == nil {
		return r.fallback(nil)
	}

	reqCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	price, err := r.cfg.Feed.GetTickerPrice(reqCtx, r.cfg.Symbol)
	if err == nil && price <= 0 {
		err = fmt.Errorf("feed returned %v: %w", price, ports.ErrInvalidPriceValue)
	}
	if err != nil {
		r.cfg.Logger.Warn(ctx, "Price feed failed, using fallback price", map[string]interface{}{
			"symbol":   r.cfg.Symbol,
			"fallback": r.cfg.FallbackUSD,
			"error":    err.Error(),
		})
		return r.fallback(err)
	}
	r.cfg.Logger.Debug(ctx, "Price resolved", map[string]interface{}{"symbol": r.cfg.Symbol, "price": price})
	return Quote{Symbol: r.cfg.Symbol, Price: price, Source: SourceLive, At: r.now()}
}

// fromPoller returns a poller value no older than MaxAge.
// A running poller without a value yet is given up to Timeout for its first poll.
func (r *Resolver) fromPoller(ctx context.Context) (Quote, bool) {
	p := r.cfg.Poller
	if p == nil {
		return Quote{}, false
	}
	if p.Running() {
		timer := time.NewTimer(r.cfg.Timeout)
		defer timer.Stop()
		select {
		case <-p.Ready():
		case <-timer.C:
		case <-ctx.Done():
		}
	}
	price, at, ok := p.Latest()
	if !ok || r.now().Sub(at) > r.cfg.MaxAge {
		return Quote{}, false
	}
	return Quote{Symbol: r.cfg.Symbol, Price: price, Source: SourcePoller, At: at}, true
}

func (r *Resolver) fallback(err error) Quote {
	return Quote{Symbol: r.cfg.Symbol, Price: r.cfg.FallbackUSD, Source: SourceFallback, At: r.now(), Err: err}
}
