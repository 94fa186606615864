package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"MarketFeed/internal/model"
)

const defaultFinnhubBaseURL = "https://finnhub.io/api/v1"

// shanghaiSuffix marks Shanghai-listed tickers, which Finnhub's coverage
// does not handle reliably. The provider refuses them outright.
const shanghaiSuffix = ".SS"

// FinnhubProvider implements Provider using the Finnhub stock API as the
// fallback data source. It is called directly, not through the relay.
type FinnhubProvider struct {
	BaseURL   string
	Token     string
	Client    *http.Client
	SymbolMap map[string]string // maps primary-source tickers to Finnhub instruments
}

// NewFinnhubProvider creates the fallback provider with optional proxy
// support. Index and commodity tickers from the primary source are
// translated to their most liquid tracking instruments.
func NewFinnhubProvider(baseURL, token, proxyURL string) *FinnhubProvider {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	if baseURL == "" {
		baseURL = defaultFinnhubBaseURL
	}
	return &FinnhubProvider{
		BaseURL: baseURL,
		Token:   token,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		SymbolMap: map[string]string{
			"^GSPC": "SPY",
			"^NDX":  "QQQ",
			"^IXIC": "QQQ",
			"^DJI":  "DIA",
			"^RUT":  "IWM",
			"GC=F":  "GLD",
			"SI=F":  "SLV",
			"CL=F":  "USO",
		},
	}
}

func (p *FinnhubProvider) Name() string { return "finnhub" }

func (p *FinnhubProvider) finnhubSymbol(symbol string) string {
	if mapped, ok := p.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// finnhubSpan maps a timeframe to Finnhub's resolution vocabulary and
// the history span to request. Sub-day resolutions are a minute count,
// the rest single-letter codes.
var finnhubSpan = map[model.Timeframe]struct {
	Resolution string
	Span       time.Duration
}{
	model.TimeframeIntraday: {"15", 5 * 24 * time.Hour},
	model.TimeframeDaily:    {"D", 2 * 365 * 24 * time.Hour},
	model.TimeframeWeekly:   {"W", 5 * 365 * 24 * time.Hour},
	model.TimeframeMonthly:  {"M", 20 * 365 * 24 * time.Hour},
}

// finnhubCandles is the candle endpoint response. Empty results arrive
// as s="no_data" rather than empty arrays.
type finnhubCandles struct {
	Status     string    `json:"s"`
	Timestamps []int64   `json:"t"`
	Open       []float64 `json:"o"`
	High       []float64 `json:"h"`
	Low        []float64 `json:"l"`
	Close      []float64 `json:"c"`
	Volume     []float64 `json:"v"`
}

func (p *FinnhubProvider) get(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return fmt.Errorf("finnhub fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("finnhub: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("finnhub decode: %w", err)
	}
	return nil
}

// FetchSeries retrieves a historical series from the candle endpoint.
func (p *FinnhubProvider) FetchSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.Series, error) {
	if strings.HasSuffix(symbol, shanghaiSuffix) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAsset, symbol)
	}
	m, ok := finnhubSpan[tf]
	if !ok {
		m = finnhubSpan[model.TimeframeDaily]
	}
	now := time.Now()
	endpoint := fmt.Sprintf("%s/candle?symbol=%s&resolution=%s&from=%d&to=%d&token=%s",
		p.BaseURL, url.QueryEscape(p.finnhubSymbol(symbol)), m.Resolution,
		now.Add(-m.Span).Unix(), now.Unix(), url.QueryEscape(p.Token))

	var candles finnhubCandles
	if err := p.get(ctx, endpoint, &candles); err != nil {
		return nil, err
	}
	if candles.Status == "no_data" || len(candles.Timestamps) == 0 {
		return nil, fmt.Errorf("%w: %s has no candle data", ErrNoData, symbol)
	}

	out := make([]model.Candle, 0, len(candles.Timestamps))
	volume := make([]model.VolumePoint, 0, len(candles.Timestamps))
	for i, ts := range candles.Timestamps {
		if i >= len(candles.Open) || i >= len(candles.High) || i >= len(candles.Low) || i >= len(candles.Close) {
			break
		}
		var vol int64
		if i < len(candles.Volume) {
			vol = int64(candles.Volume[i])
		}
		out = append(out, model.Candle{
			Time: ts,
			Open: candles.Open[i], High: candles.High[i],
			Low: candles.Low[i], Close: candles.Close[i],
		})
		volume = append(volume, model.VolumePoint{Time: ts, Volume: vol, Up: candles.Close[i] >= candles.Open[i]})
	}
	return model.NewSeries(symbol, tf, out, volume), nil
}

// FetchQuote reads the current price from the quote endpoint.
func (p *FinnhubProvider) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	if strings.HasSuffix(symbol, shanghaiSuffix) {
		return model.Quote{}, fmt.Errorf("%w: %s", ErrUnsupportedAsset, symbol)
	}
	endpoint := fmt.Sprintf("%s/quote?symbol=%s&token=%s",
		p.BaseURL, url.QueryEscape(p.finnhubSymbol(symbol)), url.QueryEscape(p.Token))

	var quote struct {
		Current float64 `json:"c"`
	}
	if err := p.get(ctx, endpoint, &quote); err != nil {
		return model.Quote{}, err
	}
	if quote.Current == 0 {
		return model.Quote{}, fmt.Errorf("%w: %s has no quote", ErrNoData, symbol)
	}
	return model.Quote{Price: quote.Current}, nil
}
