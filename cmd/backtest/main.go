package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"quote-engine-go/config"
	"quote-engine-go/market"
	"quote-engine-go/order"
	"quote-engine-go/sim"
	"quote-engine-go/strategy"
)

// Replays a CSV price series through the quote engine on a fixed cadence and
// prints spread and fill statistics.
//
// Usage:
//
//	go run ./cmd/backtest -config configs/config.yaml -prices data/prices.csv -every 10
func main() {
	cfgPath := flag.String("config", "configs/config.yaml", "path to YAML config")
	pricesPath := flag.String("prices", "data/prices.csv", "CSV with one price per row (optional timestamp column first)")
	every := flag.Int("every", 10, "tick the engine every N price points")
	flag.Parse()

	cfg, err := config.LoadWithEnvOverrides(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	prices, err := loadPrices(*pricesPath)
	if err != nil {
		log.Fatalf("load prices: %v", err)
	}
	if len(prices) == 0 {
		log.Fatal("price file is empty")
	}
	if *every <= 0 {
		*every = 1
	}

	engine, err := strategy.NewEngine(cfg.Engine.ToStrategy(), nil)
	if err != nil {
		log.Fatalf("init engine: %v", err)
	}
	account := sim.NewAccount(cfg.Paper.BaseBalance, cfg.Paper.QuoteBalance)
	gateway := sim.NewPaperGateway(account)
	runner := &sim.Runner{
		Symbol:  cfg.Symbol,
		Engine:  engine,
		Orders:  order.NewManager(gateway, nil),
		Gateway: gateway,
		Account: account,
	}

	ctx := context.Background()
	start := time.Unix(0, 0)
	refreshes := 0
	for i, price := range prices {
		ts := start.Add(time.Duration(i) * time.Second)
		if err := runner.OnPrice(market.PricePoint{Ts: ts, Price: price}); err != nil {
			log.Printf("point %d dropped: %v", i, err)
			continue
		}
		if (i+1)%*every == 0 {
			active := runner.Orders.ActiveCount()
			if err := runner.TickOnce(ctx, ts); err != nil {
				log.Printf("tick at %d failed: %v", i, err)
			}
			if runner.Orders.ActiveCount() > 0 && runner.Orders.ActiveCount() >= active {
				refreshes++
			}
		}
	}

	last := prices[len(prices)-1]
	fmt.Printf("points: %d\n", len(prices))
	fmt.Printf("refresh cycles with quotes: %d\n", refreshes)
	fmt.Printf("fills: %d\n", len(gateway.Fills()))
	fmt.Printf("final balances: base=%.6f quote=%.2f\n", account.Base(), account.Quote())
	fmt.Printf("final equity at %.2f: %.2f\n", last, account.Equity(last))
}

func loadPrices(path string) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		// Price lives in the last column; a leading timestamp is ignored.
		v, err := strconv.ParseFloat(row[len(row)-1], 64)
		if err != nil {
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
