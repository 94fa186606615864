package scheduler

import (
	"context"
	"fmt"
	"log"

	"MarketFeed/internal/model"
	"MarketFeed/internal/recorder"
	"MarketFeed/internal/service"

	"github.com/robfig/cron/v3"
)

// Scheduler refreshes series snapshots for a watchlist on a cron
// schedule so the report flow reads warm data.
type Scheduler struct {
	Cron     *cron.Cron
	Service  *service.MarketData
	Recorder recorder.Recorder
	Symbols  []string
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, svc *service.MarketData, rec recorder.Recorder, symbols []string) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Service:  svc,
		Recorder: rec,
		Symbols:  symbols,
		Ctx:      ctx,
	}
}

// Register schedules the snapshot refresh task.
func (s *Scheduler) Register(snapshotCron string) error {
	if _, err := s.Cron.AddFunc(snapshotCron, s.refreshTask); err != nil {
		return fmt.Errorf("register snapshot task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	s.Cron.Stop()
	log.Println("[INFO] scheduler stopped")
}

// RunNow executes the refresh task immediately (for manual trigger / RUN_ON_START).
func (s *Scheduler) RunNow() {
	s.refreshTask()
}

func (s *Scheduler) refreshTask() {
	log.Println("[INFO] running snapshot refresh")
	for _, symbol := range s.Symbols {
		series, err := s.Service.FetchSeries(s.Ctx, symbol, model.TimeframeDaily)
		if err != nil {
			log.Printf("[ERROR] snapshot refresh for %s: %v", symbol, err)
			continue
		}
		snap := &recorder.SeriesSnapshot{
			Symbol:    symbol,
			Timeframe: series.Timeframe,
			Bars:      len(series.Candles),
			Source:    series.Source,
		}
		if n := len(series.Candles); n > 0 {
			snap.FirstTime = series.Candles[0].Time
			snap.LastTime = series.Candles[n-1].Time
		}
		if err := s.Recorder.RecordSeries(snap); err != nil {
			log.Printf("[ERROR] record series snapshot: %v", err)
		}
	}
}
