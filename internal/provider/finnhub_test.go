package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"MarketFeed/internal/model"
)

const finnhubCandlePayload = `{
	"s": "ok",
	"t": [1700000000, 1700086400, 1700172800],
	"o": [100.1, 101.0, 100.7],
	"h": [101.5, 102.0, 103.0],
	"l": [99.9, 100.5, 100.6],
	"c": [101.0, 100.7, 102.9],
	"v": [1000, 2000, 1500]
}`

func newFinnhubProviderFor(t *testing.T, handler http.HandlerFunc) *FinnhubProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p := NewFinnhubProvider(srv.URL, "test-token", "")
	p.Client = &http.Client{Timeout: 2 * time.Second}
	return p
}

func TestFinnhubFetchSeries(t *testing.T) {
	var gotURL string
	p := newFinnhubProviderFor(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.String()
		fmt.Fprint(w, finnhubCandlePayload)
	})

	series, err := p.FetchSeries(context.Background(), "AAPL", model.TimeframeDaily)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(series.Candles) != 3 || len(series.Volume) != 3 {
		t.Fatalf("expected 3 aligned rows, got %d candles / %d volume", len(series.Candles), len(series.Volume))
	}
	if !strings.Contains(gotURL, "/candle?") || !strings.Contains(gotURL, "symbol=AAPL") ||
		!strings.Contains(gotURL, "resolution=D") || !strings.Contains(gotURL, "token=test-token") {
		t.Errorf("unexpected candle request: %q", gotURL)
	}
}

func TestFinnhubSymbolTranslation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"^GSPC", "SPY"},
		{"GC=F", "GLD"},
		{"AAPL", "AAPL"},
	}
	for _, tt := range tests {
		var gotURL string
		p := newFinnhubProviderFor(t, func(w http.ResponseWriter, r *http.Request) {
			gotURL = r.URL.String()
			fmt.Fprint(w, finnhubCandlePayload)
		})
		if _, err := p.FetchSeries(context.Background(), tt.in, model.TimeframeDaily); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.in, err)
		}
		if !strings.Contains(gotURL, "symbol="+tt.want) {
			t.Errorf("%s: expected symbol=%s in %q", tt.in, tt.want, gotURL)
		}
	}
}

func TestFinnhubResolutionMapping(t *testing.T) {
	tests := []struct {
		tf  model.Timeframe
		res string
	}{
		{model.TimeframeIntraday, "15"},
		{model.TimeframeDaily, "D"},
		{model.TimeframeWeekly, "W"},
		{model.TimeframeMonthly, "M"},
	}
	for _, tt := range tests {
		var gotURL string
		p := newFinnhubProviderFor(t, func(w http.ResponseWriter, r *http.Request) {
			gotURL = r.URL.String()
			fmt.Fprint(w, finnhubCandlePayload)
		})
		if _, err := p.FetchSeries(context.Background(), "AAPL", tt.tf); err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.tf, err)
		}
		if !strings.Contains(gotURL, "resolution="+tt.res+"&") {
			t.Errorf("%s: expected resolution=%s in %q", tt.tf, tt.res, gotURL)
		}
	}
}

func TestFinnhubRefusesShanghaiSuffix(t *testing.T) {
	var calls int32
	p := newFinnhubProviderFor(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		fmt.Fprint(w, finnhubCandlePayload)
	})

	if _, err := p.FetchSeries(context.Background(), "600519.SS", model.TimeframeDaily); !errors.Is(err, ErrUnsupportedAsset) {
		t.Errorf("FetchSeries: expected ErrUnsupportedAsset, got %v", err)
	}
	if _, err := p.FetchQuote(context.Background(), "600519.SS"); !errors.Is(err, ErrUnsupportedAsset) {
		t.Errorf("FetchQuote: expected ErrUnsupportedAsset, got %v", err)
	}
	if calls != 0 {
		t.Errorf("expected no network calls for refused asset, got %d", calls)
	}
}

func TestFinnhubNoData(t *testing.T) {
	payloads := []string{
		`{"s":"no_data"}`,
		`{"s":"ok","t":[],"o":[],"h":[],"l":[],"c":[],"v":[]}`,
	}
	for i, payload := range payloads {
		p := newFinnhubProviderFor(t, func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, payload)
		})
		if _, err := p.FetchSeries(context.Background(), "AAPL", model.TimeframeDaily); !errors.Is(err, ErrNoData) {
			t.Errorf("payload %d: expected ErrNoData, got %v", i, err)
		}
	}
}

func TestFinnhubFetchQuote(t *testing.T) {
	p := newFinnhubProviderFor(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "/quote") {
			fmt.Fprint(w, `{"c": 456.789}`)
			return
		}
		http.NotFound(w, r)
	})
	quote, err := p.FetchQuote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if quote.String() != "456.79" {
		t.Errorf("expected 456.79, got %s", quote)
	}
}

func TestFinnhubFetchQuote_ZeroPrice(t *testing.T) {
	p := newFinnhubProviderFor(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"c": 0}`)
	})
	if _, err := p.FetchQuote(context.Background(), "GONE"); !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFinnhubHTTPError(t *testing.T) {
	p := newFinnhubProviderFor(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if _, err := p.FetchSeries(context.Background(), "AAPL", model.TimeframeDaily); err == nil {
		t.Fatal("expected error on 401 response")
	}
}
