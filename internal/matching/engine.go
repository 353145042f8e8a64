// Package matching implements price-time priority order matching.
//
// The book here carries no account, client-order-ID, or status
// bookkeeping — those concerns belong to the richer OrderEvent/FillEvent
// types the orderflow example keeps at the journal boundary. Engine only
// ever sees the fields it needs to cross two orders: symbol, side,
// price, quantity, timestamp. That keeps the matching core small enough
// to operate on the pipeline's own fixed-layout types directly, instead
// of wrapping a second, string-keyed domain model around them.
package matching

import (
	"fmt"
	"sync/atomic"
)

// Side identifies which side of the book an order or fill rests on.
type Side int32

const (
	SideBuy Side = iota
	SideSell
)

// Opposite returns the other side of the book.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType controls how Engine.ProcessOrder resolves an order that
// doesn't fully cross.
type OrderType int32

const (
	// OrderTypeLimit rests any unfilled remainder in the book.
	OrderTypeLimit OrderType = iota
	// OrderTypeMarket discards any unfilled remainder.
	OrderTypeMarket
)

// Order is the matching core's own incoming order: fixed-point price in
// cents, no string fields beyond the routing symbol.
type Order struct {
	ID        uint64
	Symbol    string
	Side      Side
	Type      OrderType
	Price     int64
	Quantity  int64
	Timestamp int64
}

// Fill is one resting order's partial or full execution against an
// incoming order. Execution happens at the resting (maker) order's
// price, giving the incoming (taker) order any available price
// improvement.
type Fill struct {
	TradeID      uint64
	MakerOrderID uint64
	TakerOrderID uint64
	Symbol       string
	Price        int64
	Quantity     int64
	Timestamp    int64
	TakerSide    Side
}

// restingOrder is one unfilled (or partially filled) limit order sitting
// in a book side.
type restingOrder struct {
	id        uint64
	price     int64
	remaining int64
}

// book holds the resting limit orders for one symbol as two
// price-ordered slices. Index 0 is always the best price to match
// against: bids sorted descending, asks sorted ascending. Orders at the
// same price level keep arrival order (time priority / FIFO).
//
// A slice is the right structure here: a demo book rarely holds more
// than a few dozen resting orders per symbol, so the O(n) insertion this
// costs is cheaper in practice than the pointer-chasing of a balanced
// tree, and it needs no rebalancing logic to get right.
type book struct {
	bids []*restingOrder
	asks []*restingOrder
}

func (b *book) side(s Side) *[]*restingOrder {
	if s == SideBuy {
		return &b.bids
	}
	return &b.asks
}

func insertResting(side Side, orders []*restingOrder, o *restingOrder) []*restingOrder {
	i := 0
	for i < len(orders) {
		if side == SideBuy {
			if orders[i].price < o.price {
				break
			}
		} else {
			if orders[i].price > o.price {
				break
			}
		}
		i++
	}
	orders = append(orders, nil)
	copy(orders[i+1:], orders[i:])
	orders[i] = o
	return orders
}

func crosses(side Side, orderPrice, restingPrice int64) bool {
	if side == SideBuy {
		return orderPrice >= restingPrice
	}
	return orderPrice <= restingPrice
}

// Engine is the single-threaded matching engine: one instance drives one
// or more symbol books. It carries no internal locking — callers (here,
// orderflow's BookStage) must only ever invoke ProcessOrder from a
// single goroutine, exactly as the journal/stage/engine runtime already
// guarantees for a stage's Step.
type Engine struct {
	books   map[string]*book
	tradeID uint64
}

// NewEngine creates an empty matching engine with no tradable symbols.
func NewEngine() *Engine {
	return &Engine{books: make(map[string]*book)}
}

// AddSymbol makes symbol tradable with an empty book.
func (e *Engine) AddSymbol(symbol string) {
	if _, exists := e.books[symbol]; !exists {
		e.books[symbol] = &book{}
	}
}

// Symbols returns every tradable symbol.
func (e *Engine) Symbols() []string {
	out := make([]string, 0, len(e.books))
	for s := range e.books {
		out = append(out, s)
	}
	return out
}

func (e *Engine) nextTradeID() uint64 {
	return atomic.AddUint64(&e.tradeID, 1)
}

// ProcessOrder matches o against the resting opposite side of its
// symbol's book in price-time priority, then rests any unfilled
// remainder (limit orders only). It returns the fills produced, in
// execution order.
func (e *Engine) ProcessOrder(o Order) ([]Fill, error) {
	bk, ok := e.books[o.Symbol]
	if !ok {
		return nil, fmt.Errorf("matching: unknown symbol %q", o.Symbol)
	}
	if o.Quantity <= 0 {
		return nil, fmt.Errorf("matching: order %d has non-positive quantity", o.ID)
	}

	opposite := bk.side(o.Side.Opposite())
	var fills []Fill
	remaining := o.Quantity

	for remaining > 0 && len(*opposite) > 0 {
		best := (*opposite)[0]
		if o.Type == OrderTypeLimit && !crosses(o.Side, o.Price, best.price) {
			break
		}

		qty := best.remaining
		if remaining < qty {
			qty = remaining
		}

		fills = append(fills, Fill{
			TradeID:      e.nextTradeID(),
			MakerOrderID: best.id,
			TakerOrderID: o.ID,
			Symbol:       o.Symbol,
			Price:        best.price,
			Quantity:     qty,
			Timestamp:    o.Timestamp,
			TakerSide:    o.Side,
		})

		remaining -= qty
		best.remaining -= qty
		if best.remaining == 0 {
			*opposite = (*opposite)[1:]
		}
	}

	if remaining > 0 && o.Type == OrderTypeLimit {
		same := bk.side(o.Side)
		*same = insertResting(o.Side, *same, &restingOrder{id: o.ID, price: o.Price, remaining: remaining})
	}

	return fills, nil
}

// BestBid returns the highest resting bid price and its quantity.
func (e *Engine) BestBid(symbol string) (price, qty int64, ok bool) {
	bk, exists := e.books[symbol]
	if !exists || len(bk.bids) == 0 {
		return 0, 0, false
	}
	return bk.bids[0].price, bk.bids[0].remaining, true
}

// BestAsk returns the lowest resting ask price and its quantity.
func (e *Engine) BestAsk(symbol string) (price, qty int64, ok bool) {
	bk, exists := e.books[symbol]
	if !exists || len(bk.asks) == 0 {
		return 0, 0, false
	}
	return bk.asks[0].price, bk.asks[0].remaining, true
}
