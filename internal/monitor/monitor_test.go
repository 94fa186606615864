package monitor

import (
	"context"
	"sync"
	"testing"
	"time"

	"MarketFeed/internal/model"
)

// scriptedSource replays a fixed success/failure script, one entry per
// tick; entries past the end of the script keep failing.
type scriptedSource struct {
	mu     sync.Mutex
	script []bool
	price  float64
	calls  int
}

func (s *scriptedSource) FetchQuote(_ context.Context, _ string) (model.Quote, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := false
	if s.calls < len(s.script) {
		ok = s.script[s.calls]
	}
	s.calls++
	if !ok {
		return model.Quote{}, false
	}
	return model.Quote{Price: s.price}, true
}

func (s *scriptedSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestMonitor(src QuoteSource) *Monitor {
	m := New(src)
	m.Interval = 5 * time.Millisecond
	return m
}

func TestMonitor_EmitsPrices(t *testing.T) {
	src := &scriptedSource{script: []bool{true}, price: 123.456}
	m := newTestMonitor(src)
	defer m.Stop()

	prices := make(chan model.Quote, 1)
	m.OnPrice = func(_ string, q model.Quote) {
		select {
		case prices <- q:
		default:
		}
	}
	m.Start("ABC")

	select {
	case q := <-prices:
		if q.String() != "123.46" {
			t.Errorf("expected 123.46, got %s", q)
		}
	case <-time.After(time.Second):
		t.Fatal("no price emitted")
	}
}

func TestMonitor_HaltsAfterFiveFailures(t *testing.T) {
	src := &scriptedSource{} // empty script: every tick fails
	m := newTestMonitor(src)
	defer m.Stop()

	var mu sync.Mutex
	halts := 0
	halted := make(chan struct{}, 1)
	m.OnHalted = func(_ string) {
		mu.Lock()
		halts++
		mu.Unlock()
		select {
		case halted <- struct{}{}:
		default:
		}
	}
	m.Start("ABC")

	select {
	case <-halted:
	case <-time.After(time.Second):
		t.Fatal("monitor did not halt")
	}

	// Let several more intervals pass: no further ticks may occur and
	// the halted signal must not repeat.
	time.Sleep(10 * m.Interval)
	mu.Lock()
	gotHalts := halts
	mu.Unlock()
	if gotHalts != 1 {
		t.Errorf("expected exactly one halted signal, got %d", gotHalts)
	}
	if got := src.callCount(); got != DefaultMaxFailures {
		t.Errorf("expected exactly %d quote attempts before halting, got %d", DefaultMaxFailures, got)
	}
}

func TestMonitor_SuccessResetsFailureCounter(t *testing.T) {
	// Four failures, a success, then failures again: the halt must come
	// only after five consecutive failures following the success.
	script := []bool{false, false, false, false, true, false, false, false, false, false}
	src := &scriptedSource{script: script, price: 10}
	m := newTestMonitor(src)
	defer m.Stop()

	halted := make(chan struct{}, 1)
	m.OnHalted = func(_ string) {
		select {
		case halted <- struct{}{}:
		default:
		}
	}
	m.Start("ABC")

	select {
	case <-halted:
	case <-time.After(time.Second):
		t.Fatal("monitor did not halt")
	}
	if got := src.callCount(); got != len(script) {
		t.Errorf("expected halt after %d attempts, got %d", len(script), got)
	}
}

func TestMonitor_StopIsIdempotent(t *testing.T) {
	src := &scriptedSource{script: []bool{true, true, true}, price: 10}
	m := newTestMonitor(src)

	m.Stop() // idle stop is a no-op
	m.Start("ABC")
	m.Stop()
	m.Stop()
}

func TestMonitor_StopDiscardsInFlightResult(t *testing.T) {
	// The source blocks until the session is cancelled, then reports a
	// success; its result must never reach the caller.
	started := make(chan struct{}, 1)
	src := &blockingSource{started: started, price: 99}
	m := newTestMonitor(src)

	var mu sync.Mutex
	emitted := 0
	m.OnPrice = func(_ string, _ model.Quote) {
		mu.Lock()
		emitted++
		mu.Unlock()
	}
	m.Start("ABC")

	select {
	case <-started:
	case <-time.After(time.Second):
		t.Fatal("fetch never started")
	}
	m.Stop()
	time.Sleep(5 * m.Interval)

	mu.Lock()
	defer mu.Unlock()
	if emitted != 0 {
		t.Errorf("expected no emissions after stop, got %d", emitted)
	}
}

type blockingSource struct {
	started chan struct{}
	price   float64
}

func (b *blockingSource) FetchQuote(ctx context.Context, _ string) (model.Quote, bool) {
	select {
	case b.started <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return model.Quote{Price: b.price}, true
}

func TestMonitor_StartReplacesSession(t *testing.T) {
	src := &symbolSource{price: 10}
	m := newTestMonitor(src)
	defer m.Stop()

	m.Start("OLD")
	time.Sleep(4 * m.Interval)
	m.Start("NEW")
	time.Sleep(2 * m.Interval)
	src.reset()
	time.Sleep(4 * m.Interval)

	for _, sym := range src.symbols() {
		if sym != "NEW" {
			t.Fatalf("old session still polling: saw symbol %q", sym)
		}
	}
}

type symbolSource struct {
	mu    sync.Mutex
	seen  []string
	price float64
}

func (s *symbolSource) FetchQuote(_ context.Context, symbol string) (model.Quote, bool) {
	s.mu.Lock()
	s.seen = append(s.seen, symbol)
	s.mu.Unlock()
	return model.Quote{Price: s.price}, true
}

func (s *symbolSource) reset() {
	s.mu.Lock()
	s.seen = nil
	s.mu.Unlock()
}

func (s *symbolSource) symbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}
