package provider

import (
	"context"
	"errors"

	"MarketFeed/internal/model"
)

// Provider defines the interface for answering series and quote requests
// against one market data source.
type Provider interface {
	FetchSeries(ctx context.Context, symbol string, tf model.Timeframe) (*model.Series, error)
	FetchQuote(ctx context.Context, symbol string) (model.Quote, error)
	Name() string
}

// ErrNoData means the upstream was reachable but its payload carried no
// usable series or quote fields.
var ErrNoData = errors.New("no data found")

// ErrUnsupportedAsset means the provider refuses this identifier class
// without attempting a network call.
var ErrUnsupportedAsset = errors.New("asset not supported by this provider")
