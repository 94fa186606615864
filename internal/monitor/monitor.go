package monitor

import (
	"context"
	"log"
	"sync"
	"time"

	"MarketFeed/internal/model"
)

const (
	// DefaultInterval is the reference polling cadence.
	DefaultInterval = 5 * time.Second
	// DefaultMaxFailures is the consecutive-failure count that halts a
	// session.
	DefaultMaxFailures = 5
)

// QuoteSource answers current-price requests; a false result means no
// quote was obtainable from any provider.
type QuoteSource interface {
	FetchQuote(ctx context.Context, symbol string) (model.Quote, bool)
}

// state is the per-session polling state, owned exclusively by the
// session goroutine.
type state struct {
	lastPrice           model.Quote
	consecutiveFailures int
	halted              bool
}

// Monitor polls a quote source for one symbol on a fixed cadence and
// reports prices through callbacks. After MaxFailures consecutive
// misses the session halts itself and signals OnHalted exactly once.
// One session is active at a time; Start implicitly replaces a running
// session and Stop is idempotent.
type Monitor struct {
	Source      QuoteSource
	Interval    time.Duration
	MaxFailures int

	OnPrice  func(symbol string, quote model.Quote)
	OnHalted func(symbol string)

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a Monitor with the reference cadence and halt threshold.
func New(source QuoteSource) *Monitor {
	return &Monitor{
		Source:      source,
		Interval:    DefaultInterval,
		MaxFailures: DefaultMaxFailures,
	}
}

// Start begins a polling session for symbol and returns immediately.
// Any previous session is stopped first.
func (m *Monitor) Start(symbol string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	log.Printf("[INFO] price monitor started for %s (every %v)", symbol, m.Interval)
	go m.run(ctx, symbol)
}

// Stop tears down the current session, if any. An in-flight quote
// request is abandoned and its result discarded.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *Monitor) stopLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// run is the session loop. Polling state is mutated only here, and the
// inline fetch guarantees at most one in-flight request: ticks that
// fire while a slow fetch is outstanding are simply dropped.
func (m *Monitor) run(ctx context.Context, symbol string) {
	st := &state{}
	ticker := time.NewTicker(m.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		quote, ok := m.Source.FetchQuote(ctx, symbol)
		if ctx.Err() != nil {
			return // stopped mid-fetch, discard the result
		}

		if ok {
			st.lastPrice = quote
			st.consecutiveFailures = 0
			if m.OnPrice != nil {
				m.OnPrice(symbol, quote)
			}
			continue
		}

		st.consecutiveFailures++
		if st.consecutiveFailures >= m.MaxFailures {
			st.halted = true
			log.Printf("[WARN] price monitor halted for %s after %d consecutive failures",
				symbol, st.consecutiveFailures)
			if m.OnHalted != nil {
				m.OnHalted(symbol)
			}
			return
		}
	}
}
