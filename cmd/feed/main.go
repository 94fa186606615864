package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketFeed/internal/config"
	"MarketFeed/internal/model"
	"MarketFeed/internal/monitor"
	"MarketFeed/internal/provider"
	"MarketFeed/internal/recorder"
	"MarketFeed/internal/relay"
	"MarketFeed/internal/scheduler"
	"MarketFeed/internal/service"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] MarketFeed starting...")

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	// Init providers: Yahoo through the relay, Finnhub as direct fallback.
	rly := relay.New(cfg.Relay.Intermediaries, cfg.Proxy)
	primary := provider.NewYahooProvider(cfg.Primary.BaseURL, rly)

	var secondary provider.Provider
	if cfg.Secondary.APIKey != "" {
		secondary = provider.NewFinnhubProvider(cfg.Secondary.BaseURL, cfg.Secondary.APIKey, cfg.Proxy)
		log.Println("[INFO] fallback provider: finnhub")
	} else {
		log.Println("[WARN] no FINNHUB_API_KEY configured, fallback provider disabled")
	}

	svc := service.NewMarketData(primary, secondary)

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init snapshot scheduler
	sched := scheduler.NewScheduler(ctx, svc, rec, cfg.Symbols)
	if err := sched.Register(cfg.Schedule.SnapshotCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Init live price monitor for the first watchlist symbol
	mon := monitor.New(svc)
	mon.Interval = time.Duration(cfg.Monitor.IntervalSeconds) * time.Second
	mon.MaxFailures = cfg.Monitor.MaxFailures
	mon.OnPrice = func(symbol string, quote model.Quote) {
		log.Printf("[INFO] %s: %s", symbol, quote)
		if err := rec.RecordQuote(&recorder.QuoteTick{Symbol: symbol, Price: quote.Price}); err != nil {
			log.Printf("[ERROR] record quote: %v", err)
		}
	}
	mon.OnHalted = func(symbol string) {
		log.Printf("[WARN] live price unavailable for %s, monitoring halted", symbol)
		if err := rec.RecordMonitorEvent(&recorder.MonitorEvent{Symbol: symbol, EventType: "HALT"}); err != nil {
			log.Printf("[ERROR] record monitor event: %v", err)
		}
	}

	liveSymbol := cfg.Symbols[0]
	mon.Start(liveSymbol)
	defer mon.Stop()
	if err := rec.RecordMonitorEvent(&recorder.MonitorEvent{Symbol: liveSymbol, EventType: "START"}); err != nil {
		log.Printf("[ERROR] record monitor event: %v", err)
	}

	// Optional: refresh snapshots immediately on start
	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, refreshing snapshots now")
		go sched.RunNow()
	}

	log.Println("[INFO] MarketFeed is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	mon.Stop()
	if err := rec.RecordMonitorEvent(&recorder.MonitorEvent{Symbol: liveSymbol, EventType: "STOP"}); err != nil {
		log.Printf("[ERROR] record monitor event: %v", err)
	}
	cancel()
	log.Println("[INFO] MarketFeed stopped")
}
