package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"go.uber.org/zap"

	"quote-engine-go/config"
	"quote-engine-go/infrastructure/logger"
	"quote-engine-go/market"
	"quote-engine-go/metrics"
	"quote-engine-go/order"
	"quote-engine-go/sim"
	"quote-engine-go/strategy"
)

func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to YAML config")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zlog, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	if cfg.Metrics.Addr != "" {
		metrics.StartMetricsServer(cfg.Metrics.Addr)
		zlog.Info("metrics server started", zap.String("addr", cfg.Metrics.Addr))
	}

	engine, err := strategy.NewEngine(cfg.Engine.ToStrategy(), zlog)
	if err != nil {
		zlog.Fatal("init engine", zap.Error(err))
	}

	account := sim.NewAccount(cfg.Paper.BaseBalance, cfg.Paper.QuoteBalance)
	gateway := sim.NewPaperGateway(account)
	runner := &sim.Runner{
		Symbol:  cfg.Symbol,
		Engine:  engine,
		Orders:  order.NewManager(gateway, zlog),
		Gateway: gateway,
		Account: account,
		Log:     zlog,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Paper.JournalPath != "" {
		journal, err := sim.OpenJournal(cfg.Paper.JournalPath)
		if err != nil {
			zlog.Fatal("open journal", zap.Error(err))
		}
		defer journal.Close()
		runner.Journal = journal
		gateway.OnFill(func(f sim.Fill) {
			zlog.Info("paper fill",
				zap.String("side", f.Side), zap.Float64("price", f.Price), zap.Float64("amount", f.Amount))
			if err := journal.RecordFill(ctx, time.Now(), f); err != nil {
				zlog.Warn("journal fill failed", zap.Error(err))
			}
		})
	}

	feed, err := market.NewFeed(market.FeedConfig{
		Endpoint:    cfg.Feed.Endpoint,
		Symbol:      cfg.Symbol,
		ReadTimeout: time.Duration(cfg.Feed.ReadTimeoutSec) * time.Second,
	}, func(p market.PricePoint) {
		if err := runner.OnPrice(p); err != nil {
			zlog.Debug("price point dropped", zap.Error(err))
		}
	}, zlog)
	if err != nil {
		zlog.Fatal("init feed", zap.Error(err))
	}
	feed.OnReconnect(metrics.FeedReconnects.Inc)

	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			zlog.Error("feed stopped", zap.Error(err))
		}
	}()

	// Config edits are picked up for the next restart; the running engine
	// keeps its immutable parameters.
	go func() {
		w := config.Watcher{Path: *cfgPath}
		_ = w.Start(ctx, func(config.AppConfig) {
			zlog.Warn("config file changed; restart to apply new parameters")
		})
	}()

	notifySystemd(ctx, zlog)

	zlog.Info("runner starting",
		zap.String("symbol", cfg.Symbol),
		zap.Duration("refresh", engine.Config().OrderRefreshTime))
	if err := runner.Run(ctx); err != nil && ctx.Err() == nil {
		zlog.Error("runner stopped", zap.Error(err))
		os.Exit(1)
	}
	zlog.Info("shutdown complete")
}

// notifySystemd reports readiness and keeps the watchdog fed when running
// under systemd; it is a no-op otherwise.
func notifySystemd(ctx context.Context, zlog *zap.Logger) {
	if ok, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		zlog.Warn("sd_notify failed", zap.Error(err))
	} else if ok {
		zlog.Info("systemd notified ready")
	}

	interval, err := daemon.SdWatchdogEnabled(false)
	if err != nil || interval == 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval / 2)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = daemon.SdNotify(false, daemon.SdNotifyWatchdog)
			}
		}
	}()
}
