package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"MarketFeed/internal/model"
	"MarketFeed/internal/provider"
)

// ErrAllProvidersFailed is the only series error surfaced to callers:
// both providers were exhausted, or the fallback was unavailable.
var ErrAllProvidersFailed = errors.New("all market data providers failed")

// MarketData orchestrates primary-then-fallback retrieval. It holds no
// per-call state; every request runs the same ordered policy.
type MarketData struct {
	Primary   provider.Provider
	Secondary provider.Provider // nil when no fallback credential is configured
}

// NewMarketData creates the service. Secondary may be nil.
func NewMarketData(primary, secondary provider.Provider) *MarketData {
	return &MarketData{Primary: primary, Secondary: secondary}
}

// FetchSeries tries the primary provider first and the fallback on any
// primary failure. Individual attempt failures are logged, not
// surfaced; the caller sees data or ErrAllProvidersFailed.
func (s *MarketData) FetchSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.Series, error) {
	series, primaryErr := s.Primary.FetchSeries(ctx, symbol, tf)
	if primaryErr == nil {
		series.Source = s.Primary.Name()
		return series, nil
	}
	log.Printf("[WARN] %s series fetch failed for %s: %v", s.Primary.Name(), symbol, primaryErr)

	if s.Secondary == nil {
		return nil, fmt.Errorf("%w: no data for %s: primary failed (%v), fallback unavailable",
			ErrAllProvidersFailed, symbol, primaryErr)
	}
	series, secondaryErr := s.Secondary.FetchSeries(ctx, symbol, tf)
	if secondaryErr == nil {
		series.Source = s.Secondary.Name()
		return series, nil
	}
	log.Printf("[WARN] %s series fetch failed for %s: %v", s.Secondary.Name(), symbol, secondaryErr)
	return nil, fmt.Errorf("%w: no data for %s: primary failed (%v), fallback also failed (%v)",
		ErrAllProvidersFailed, symbol, primaryErr, secondaryErr)
}

// FetchQuote tries both providers in order and never returns an error:
// a quote is either available or it is not, and a missing quote only
// degrades the live display.
func (s *MarketData) FetchQuote(ctx context.Context, symbol string) (model.Quote, bool) {
	quote, err := s.Primary.FetchQuote(ctx, symbol)
	if err == nil {
		return quote, true
	}
	log.Printf("[WARN] %s quote fetch failed for %s: %v", s.Primary.Name(), symbol, err)

	if s.Secondary == nil {
		return model.Quote{}, false
	}
	quote, err = s.Secondary.FetchQuote(ctx, symbol)
	if err != nil {
		log.Printf("[WARN] %s quote fetch failed for %s: %v", s.Secondary.Name(), symbol, err)
		return model.Quote{}, false
	}
	return quote, true
}
