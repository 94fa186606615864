package recorder

import "MarketFeed/internal/model"

// QuoteTick records one emitted live price.
type QuoteTick struct {
	Symbol string
	Price  float64
}

// SeriesSnapshot records the outcome of one successful series fetch.
type SeriesSnapshot struct {
	Symbol    string
	Timeframe model.Timeframe
	Bars      int
	FirstTime int64
	LastTime  int64
	Source    string // name of the provider that served the data
}

// MonitorEvent records a polling session lifecycle change.
type MonitorEvent struct {
	Symbol    string
	EventType string // "START", "HALT" or "STOP"
}

// Recorder persists market data bookkeeping.
type Recorder interface {
	RecordQuote(tick *QuoteTick) error
	RecordSeries(snap *SeriesSnapshot) error
	RecordMonitorEvent(evt *MonitorEvent) error
	Close() error
}
