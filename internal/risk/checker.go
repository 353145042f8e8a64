// Package risk implements pre-trade risk checks run before an order
// reaches the matching engine.
//
// Checks operate on matching.Order directly rather than a richer,
// account-aware domain order; the demo risk posture is order-size and
// notional-value limits plus a price band around the last reference
// price, not full per-account position/volume tracking.
package risk

import (
	"fmt"
	"sync"

	"github.com/tislib/roda-state/internal/matching"
)

// CheckResult is the outcome of one Check call.
type CheckResult struct {
	Passed bool
	Reason string
}

// Config configures a Checker.
type Config struct {
	MaxOrderSize     int64   // maximum quantity per order
	MaxOrderNotional int64   // maximum price*quantity per order, in cents
	PriceBandPercent float64 // max deviation from the last trade price; 0 disables the check
}

// DefaultConfig returns a reasonable default configuration for the demo
// pipeline.
func DefaultConfig() Config {
	return Config{
		MaxOrderSize:     100_000,
		MaxOrderNotional: 10_000_000, // $100,000
		PriceBandPercent: 0.10,
	}
}

// Checker performs pre-trade risk checks. A Checker is safe for
// concurrent use because RiskFilter and BookStage's settlement-driven
// reference-price updates run on independent goroutines.
type Checker struct {
	cfg             Config
	mu              sync.RWMutex
	referencePrices map[string]int64
}

// NewChecker builds a Checker from cfg.
func NewChecker(cfg Config) *Checker {
	return &Checker{cfg: cfg, referencePrices: make(map[string]int64)}
}

// Check runs the configured checks against o, stopping at the first
// failure. Quantity and order-size checks apply to every order; the
// notional and price-band checks apply only to limit orders with a
// positive price.
func (c *Checker) Check(o matching.Order) CheckResult {
	if o.Quantity <= 0 {
		return CheckResult{Reason: "quantity must be positive"}
	}
	if c.cfg.MaxOrderSize > 0 && o.Quantity > c.cfg.MaxOrderSize {
		return CheckResult{Reason: fmt.Sprintf("order size %d exceeds max %d", o.Quantity, c.cfg.MaxOrderSize)}
	}
	if o.Type != matching.OrderTypeLimit || o.Price <= 0 {
		return CheckResult{Passed: true}
	}

	if notional := o.Price * o.Quantity; c.cfg.MaxOrderNotional > 0 && notional > c.cfg.MaxOrderNotional {
		return CheckResult{Reason: fmt.Sprintf("order notional %d exceeds max %d", notional, c.cfg.MaxOrderNotional)}
	}
	if !c.withinPriceBand(o.Symbol, o.Price) {
		return CheckResult{Reason: fmt.Sprintf("price %d outside %.0f%% band around reference", o.Price, c.cfg.PriceBandPercent*100)}
	}
	return CheckResult{Passed: true}
}

func (c *Checker) withinPriceBand(symbol string, price int64) bool {
	if c.cfg.PriceBandPercent <= 0 {
		return true
	}
	c.mu.RLock()
	ref, known := c.referencePrices[symbol]
	c.mu.RUnlock()
	if !known || ref == 0 {
		return true
	}
	band := int64(float64(ref) * c.cfg.PriceBandPercent)
	return price >= ref-band && price <= ref+band
}

// SetReferencePrice records symbol's last traded price, narrowing the
// price band future orders are checked against.
func (c *Checker) SetReferencePrice(symbol string, price int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.referencePrices[symbol] = price
}

// ReferencePrice returns the last price recorded for symbol, or 0 if
// none has been recorded yet.
func (c *Checker) ReferencePrice(symbol string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.referencePrices[symbol]
}
