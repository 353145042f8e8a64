// Package settlement records executed fills for post-trade reporting.
//
// The demo clearing house tracks a trade ledger and per-symbol traded
// volume; it does not model T+N settlement dates, netting, or account
// cash/holdings balances — those belong to a back-office system well
// outside what a journal/stage pipeline demo needs to exercise.
package settlement

import (
	"sync"

	"github.com/tislib/roda-state/internal/matching"
)

// Trade is one executed fill, recorded for reporting after the fact.
type Trade struct {
	TradeID   uint64
	Symbol    string
	Price     int64
	Quantity  int64
	Timestamp int64
}

// ClearingHouse accumulates executed trades and per-symbol traded
// volume. It is safe for concurrent use.
type ClearingHouse struct {
	mu     sync.Mutex
	trades []Trade
	volume map[string]int64
}

// NewClearingHouse returns an empty ClearingHouse.
func NewClearingHouse() *ClearingHouse {
	return &ClearingHouse{volume: make(map[string]int64)}
}

// RecordTrade appends fill to the trade ledger and returns the recorded
// Trade.
func (ch *ClearingHouse) RecordTrade(fill matching.Fill) *Trade {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	t := Trade{
		TradeID:   fill.TradeID,
		Symbol:    fill.Symbol,
		Price:     fill.Price,
		Quantity:  fill.Quantity,
		Timestamp: fill.Timestamp,
	}
	ch.trades = append(ch.trades, t)
	ch.volume[fill.Symbol] += fill.Quantity
	return &t
}

// Volume returns the cumulative traded quantity recorded for symbol.
func (ch *ClearingHouse) Volume(symbol string) int64 {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.volume[symbol]
}

// TradeCount returns the number of trades recorded so far.
func (ch *ClearingHouse) TradeCount() int {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return len(ch.trades)
}
