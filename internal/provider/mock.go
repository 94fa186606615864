package provider

import (
	"context"

	"MarketFeed/internal/model"
)

// MockProvider returns controllable fixed data for development and
// testing, counting calls so fallback ordering can be asserted.
type MockProvider struct {
	ProviderName string
	Series       *model.Series
	Price        float64
	SeriesErr    error
	QuoteErr     error

	SeriesCalls int
	QuoteCalls  int
}

func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockProvider) FetchSeries(_ context.Context, symbol string, tf model.Timeframe) (*model.Series, error) {
	m.SeriesCalls++
	if m.SeriesErr != nil {
		return nil, m.SeriesErr
	}
	if m.Series != nil {
		return m.Series, nil
	}
	return model.NewSeries(symbol, tf, nil, nil), nil
}

func (m *MockProvider) FetchQuote(_ context.Context, _ string) (model.Quote, error) {
	m.QuoteCalls++
	if m.QuoteErr != nil {
		return model.Quote{}, m.QuoteErr
	}
	return model.Quote{Price: m.Price}, nil
}
