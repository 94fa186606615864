package model

import (
	"fmt"
	"strings"
	"time"
)

// Timeframe selects the sampling interval and history span of a series.
// Each provider maps it to its own range/resolution vocabulary.
type Timeframe string

const (
	TimeframeIntraday Timeframe = "intraday"
	TimeframeDaily    Timeframe = "daily"
	TimeframeWeekly   Timeframe = "weekly"
	TimeframeMonthly  Timeframe = "monthly"
)

// ParseTimeframe normalizes a timeframe string. Unrecognized values fall
// back to the daily timeframe.
func ParseTimeframe(s string) Timeframe {
	switch Timeframe(strings.ToLower(strings.TrimSpace(s))) {
	case TimeframeIntraday:
		return TimeframeIntraday
	case TimeframeWeekly:
		return TimeframeWeekly
	case TimeframeMonthly:
		return TimeframeMonthly
	default:
		return TimeframeDaily
	}
}

// Candle represents a single OHLC price bar.
type Candle struct {
	Time  int64 // epoch seconds
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// VolumePoint is the traded volume for one bar. Up reports whether the
// bar closed at or above its open.
type VolumePoint struct {
	Time   int64
	Volume int64
	Up     bool
}

// Series holds the historical dataset for one asset/timeframe: candles
// and volume points aligned 1:1 by time, ascending, plus a tabular text
// projection of the same rows for downstream report generation.
type Series struct {
	Symbol    string
	Timeframe Timeframe
	Candles   []Candle
	Volume    []VolumePoint
	Table     string
	Source    string // name of the provider that served the data
}

// NewSeries builds a Series from aligned candle and volume slices and
// renders the text projection.
func NewSeries(symbol string, tf Timeframe, candles []Candle, volume []VolumePoint) *Series {
	return &Series{
		Symbol:    symbol,
		Timeframe: tf,
		Candles:   candles,
		Volume:    volume,
		Table:     renderTable(candles, volume),
	}
}

func renderTable(candles []Candle, volume []VolumePoint) string {
	var b strings.Builder
	b.WriteString("Date,Open,High,Low,Close,Volume\n")
	for i, c := range candles {
		var vol int64
		if i < len(volume) {
			vol = volume[i].Volume
		}
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,%d\n",
			time.Unix(c.Time, 0).UTC().Format("2006-01-02 15:04"),
			c.Open, c.High, c.Low, c.Close, vol)
	}
	return b.String()
}

// Quote is a single current price reading.
type Quote struct {
	Price float64
}

// String renders the price with fixed two-decimal precision, the form
// consumers display.
func (q Quote) String() string {
	return fmt.Sprintf("%.2f", q.Price)
}
