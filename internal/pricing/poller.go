package pricing

import (
	"context"
	"fmt"
	"sync"
	"time"

	"journalAnalytics/internal/ports"
)

// Poller refreshes a price from the feed at a fixed interval.
type Poller struct {
	feed     ports.PriceFeed
	logger   ports.Logger
	symbol   string
	interval time.Duration
	timeout  time.Duration
	onUpdate func(price float64, at time.Time)

	ready     chan struct{} // Closed after the first successful poll
	readyOnce sync.Once

	mu       sync.RWMutex // Protects the fields below
	price    float64
	at       time.Time
	failures int
	running  bool
}

// PollerConfig configures NewPoller.
type PollerConfig struct {
	Feed     ports.PriceFeed
	Logger   ports.Logger
	Symbol   string
	Interval time.Duration
	Timeout  time.Duration                     // Per request, defaults to the interval
	OnUpdate func(price float64, at time.Time) // Optional, called after each successful fetch
}

// NewPoller creates a Poller. It does nothing until Run is called.
func NewPoller(cfg PollerConfig) (*Poller, error) {
	if cfg.Feed == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("missing required dependencies for price poller")
	}
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("price symbol cannot be empty: %w", ports.ErrConfigurationError)
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s: %w", cfg.Interval, ports.ErrConfigurationError)
	}
	timeout := cfg.Timeout
	if timeout <= 0 || timeout > cfg.Interval {
		timeout = cfg.Interval
	}
	return &Poller{
		feed:     cfg.Feed,
		logger:   cfg.Logger,
		symbol:   cfg.Symbol,
		interval: cfg.Interval,
		timeout:  timeout,
		onUpdate: cfg.OnUpdate,
		ready:    make(chan struct{}),
	}, nil
}

// Interval returns the poll period.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Start runs the poller in the background until ctx is done.
// The returned function blocks until the poller has stopped.
func (p *Poller) Start(ctx context.Context) (wait func()) {
	p.setRunning(true)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx)
	}()
	return func() { <-done }
}

// Run fetches once immediately and then on every tick until ctx is done.
// Fetch failures are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	p.setRunning(true)
	defer p.setRunning(false)

	p.logger.Info(ctx, "Starting price poller", map[string]interface{}{"symbol": p.symbol, "interval": p.interval.String()})

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Info(ctx, "Price poller stopped", map[string]interface{}{"symbol": p.symbol})
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	price, err := p.feed.GetTickerPrice(reqCtx, p.symbol)
	if err == nil && price <= 0 {
		err = fmt.Errorf("feed returned %v: %w", price, ports.ErrInvalidPriceValue)
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		p.mu.Lock()
		p.failures++
		failures := p.failures
		p.mu.Unlock()
		p.logger.Warn(ctx, "Price poll failed", map[string]interface{}{"symbol": p.symbol, "failures": failures, "error": err.Error()})
		return
	}

	now := time.Now()
	p.mu.Lock()
	p.price = price
	p.at = now
	p.failures = 0
	p.mu.Unlock()
	p.readyOnce.Do(func() { close(p.ready) })

	p.logger.Debug(ctx, "Price updated", map[string]interface{}{"symbol": p.symbol, "price": price})
	if p.onUpdate != nil {
		p.onUpdate(price, now)
	}
}

// Latest returns the last fetched price and its time; ok is false before the first success.
func (p *Poller) Latest() (price float64, at time.Time, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.price, p.at, !p.at.IsZero()
}

// Failures returns the number of consecutive failed polls.
func (p *Poller) Failures() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.failures
}

// Ready is closed once the first poll has succeeded.
func (p *Poller) Ready() <-chan struct{} {
	return p.ready
}

// Running reports whether Run or Start is active.
func (p *Poller) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

func (p *Poller) setRunning(v bool) {
	p.mu.Lock()
	p.running = v
	p.mu.Unlock()
}
