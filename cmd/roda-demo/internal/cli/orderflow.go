package cli

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/tislib/roda-state/engine"
	"github.com/tislib/roda-state/examples/orderflow"
	"github.com/tislib/roda-state/internal/matching"
)

func newOrderflowCmd() *cobra.Command {
	var (
		duration time.Duration
		rate     time.Duration
		symbol   string
	)

	cmd := &cobra.Command{
		Use:   "orderflow",
		Short: "Run the order book / matching / risk / settlement example",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrderflow(duration, rate, symbol)
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 2*time.Second, "how long to generate synthetic orders")
	cmd.Flags().DurationVar(&rate, "order-interval", 5*time.Millisecond, "interval between synthetic orders")
	cmd.Flags().StringVar(&symbol, "symbol", "AAPL", "ticker symbol to simulate")

	return cmd
}

func runOrderflow(duration, rate time.Duration, symbol string) error {
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck

	eng := engine.New(engine.DefaultConfig(), logger)

	cfg := orderflow.DefaultConfig()
	cfg.Symbols = []string{symbol}

	pl, err := orderflow.Build(eng, cfg, logger)
	if err != nil {
		return fmt.Errorf("build orderflow pipeline: %w", err)
	}

	stop := generateOrders(pl, symbol, rate)
	time.Sleep(duration)
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := eng.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	defer eng.Close() //nolint:errcheck

	logger.Infow("orderflow run complete",
		"orders", pl.Orders.Len(), "fills", pl.Fills.Len())

	r := pl.Fills.Reader()
	for r.TryAdvance() {
		f, ok := r.Get()
		if ok {
			fmt.Printf("fill trade=%d symbol=%s qty=%d price=%d\n",
				f.TradeID, orderflow.DecodeSymbol(f.Symbol), f.Quantity, f.Price)
		}
	}
	return nil
}

func generateOrders(pl *orderflow.Pipeline, symbol string, interval time.Duration) chan struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		rng := rand.New(rand.NewSource(1))
		var id uint64
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				id++
				side := matching.SideBuy
				if rng.Intn(2) == 0 {
					side = matching.SideSell
				}
				ev := orderflow.OrderEvent{
					ID:        id,
					Price:     int64(100_00 + rng.Intn(200) - 100),
					Quantity:  int64(1 + rng.Intn(50)),
					Timestamp: time.Now().UnixNano(),
					Symbol:    orderflow.EncodeSymbol(symbol),
					Account:   orderflow.EncodeAccount(fmt.Sprintf("acct-%d", id%5)),
					Side:      int32(side),
					Type:      int32(matching.OrderTypeLimit),
				}
				_ = pl.Submit(ev)
			}
		}
	}()
	return stop
}
