package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"MarketFeed/internal/model"
	"MarketFeed/internal/relay"
)

const defaultYahooBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// YahooProvider implements Provider using the Yahoo Finance chart API,
// reached through the forwarding relay.
type YahooProvider struct {
	BaseURL string
	Relay   *relay.Relay
}

// NewYahooProvider creates the primary provider.
func NewYahooProvider(baseURL string, r *relay.Relay) *YahooProvider {
	if baseURL == "" {
		baseURL = defaultYahooBaseURL
	}
	return &YahooProvider{BaseURL: baseURL, Relay: r}
}

func (p *YahooProvider) Name() string { return "yahoo" }

// yahooRange maps a timeframe to Yahoo's range/interval pair.
var yahooRange = map[model.Timeframe]struct{ Range, Interval string }{
	model.TimeframeIntraday: {"5d", "15m"},
	model.TimeframeDaily:    {"2y", "1d"},
	model.TimeframeWeekly:   {"5y", "1wk"},
	model.TimeframeMonthly:  {"max", "1mo"},
}

// yahooChart is the response envelope from the Yahoo chart API. OHLCV
// arrays use pointers because the API emits nulls for holidays and gaps.
type yahooChart struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice *float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// checkChartEnvelope is the relay validation hook: a payload without the
// chart.result envelope, or with an embedded API error, makes the relay
// fall through to its next intermediary.
func checkChartEnvelope(body []byte) error {
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return fmt.Errorf("decode chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return fmt.Errorf("api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return fmt.Errorf("missing chart result")
	}
	return nil
}

func (p *YahooProvider) chartURL(symbol, rng, interval string) string {
	return fmt.Sprintf("%s/%s?range=%s&interval=%s", p.BaseURL, url.PathEscape(symbol), rng, interval)
}

func (p *YahooProvider) fetchChart(ctx context.Context, symbol, rng, interval string) (*yahooChart, error) {
	body, err := p.Relay.Get(ctx, p.chartURL(symbol, rng, interval), checkChartEnvelope)
	if err != nil {
		return nil, err
	}
	var chart yahooChart
	if err := json.Unmarshal(body, &chart); err != nil {
		return nil, fmt.Errorf("yahoo decode: %w", err)
	}
	return &chart, nil
}

// FetchSeries retrieves and normalizes a historical series. Rows with a
// null timestamp or any null OHLC value are dropped; a null volume reads
// as zero. Upstream ascending order is preserved.
func (p *YahooProvider) FetchSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.Series, error) {
	m, ok := yahooRange[tf]
	if !ok {
		m = yahooRange[model.TimeframeDaily]
	}
	chart, err := p.fetchChart(ctx, symbol, m.Range, m.Interval)
	if err != nil {
		return nil, err
	}

	result := chart.Chart.Result[0]
	if len(result.Timestamp) == 0 || len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("%w: %s has no chart data", ErrNoData, symbol)
	}
	quote := result.Indicators.Quote[0]

	candles := make([]model.Candle, 0, len(result.Timestamp))
	volume := make([]model.VolumePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Open) || i >= len(quote.High) || i >= len(quote.Low) || i >= len(quote.Close) {
			break
		}
		o, h, l, c := quote.Open[i], quote.High[i], quote.Low[i], quote.Close[i]
		if o == nil || h == nil || l == nil || c == nil {
			continue // null bar (holiday or data gap)
		}
		var vol int64
		if i < len(quote.Volume) && quote.Volume[i] != nil {
			vol = int64(*quote.Volume[i])
		}
		candles = append(candles, model.Candle{Time: ts, Open: *o, High: *h, Low: *l, Close: *c})
		volume = append(volume, model.VolumePoint{Time: ts, Volume: vol, Up: *c >= *o})
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("%w: %s has no usable rows", ErrNoData, symbol)
	}
	return model.NewSeries(symbol, tf, candles, volume), nil
}

// FetchQuote reads the current price from a lightweight intraday
// snapshot request.
func (p *YahooProvider) FetchQuote(ctx context.Context, symbol string) (model.Quote, error) {
	chart, err := p.fetchChart(ctx, symbol, "1d", "1m")
	if err != nil {
		return model.Quote{}, err
	}
	price := chart.Chart.Result[0].Meta.RegularMarketPrice
	if price == nil || *price == 0 {
		return model.Quote{}, fmt.Errorf("%w: %s has no market price", ErrNoData, symbol)
	}
	return model.Quote{Price: *price}, nil
}
