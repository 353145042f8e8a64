package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tislib/roda-state/engine"
	"github.com/tislib/roda-state/examples/tickcandle"
	"github.com/tislib/roda-state/journal"
)

func newTickCandleCmd() *cobra.Command {
	var (
		duration time.Duration
		rate     time.Duration
		symbol   int64
	)

	cmd := &cobra.Command{
		Use:   "tickcandle",
		Short: "Run the tick-to-candle aggregation example",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTickCandle(duration, rate, symbol)
		},
	}

	cmd.Flags().DurationVar(&duration, "duration", 2*time.Second, "how long to generate synthetic ticks")
	cmd.Flags().DurationVar(&rate, "tick-interval", 10*time.Millisecond, "interval between synthetic ticks")
	cmd.Flags().Int64Var(&symbol, "symbol", 1, "numeric symbol id to simulate")
	_ = v.BindPFlag("tickcandle.duration", cmd.Flags().Lookup("duration"))

	return cmd
}

func runTickCandle(duration, rate time.Duration, symbol int64) error {
	logger := newLogger()
	defer logger.Sync() //nolint:errcheck // best-effort flush on exit

	eng := engine.New(engine.DefaultConfig(), logger)

	ticks, err := engine.CreateJournal[tickcandle.Tick](eng, "tickcandle.ticks", 1<<16)
	if err != nil {
		return fmt.Errorf("create ticks journal: %w", err)
	}
	candles, err := engine.CreateJournal[tickcandle.Candle](eng, "tickcandle.candles", 1<<16)
	if err != nil {
		return fmt.Errorf("create candles journal: %w", err)
	}

	tw, err := ticks.Writer()
	if err != nil {
		return fmt.Errorf("claim ticks writer: %w", err)
	}
	cw, err := candles.Writer()
	if err != nil {
		return fmt.Errorf("claim candles writer: %w", err)
	}

	st := tickcandle.NewCandleStage(ticks.Reader(), cw, tickcandle.DefaultBucketNs, 50*time.Millisecond)
	eng.Spawn("tickcandle", 0, st)

	stop := generateTicks(tw, symbol, rate)
	time.Sleep(duration)
	close(stop)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := eng.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	defer eng.Close() //nolint:errcheck

	logger.Infow("tickcandle run complete", "ticks", ticks.Len(), "candles", candles.Len())

	r := candles.Reader()
	for r.TryAdvance() {
		c, ok := r.Get()
		if ok {
			fmt.Printf("candle sym=%d open=%d high=%d low=%d close=%d ts=%d\n",
				c.Sym, c.Open, c.High, c.Low, c.Close, c.Ts)
		}
	}
	return nil
}

func generateTicks(w *journal.Writer[tickcandle.Tick], symbol int64, interval time.Duration) chan struct{} {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var tsNs int64
		price := int64(100_00)
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				tsNs += int64(interval)
				price += (tsNs/1000)%7 - 3
				_ = w.Append(tickcandle.Tick{Sym: symbol, Price: price, TsNs: tsNs})
			}
		}
	}()
	return stop
}
