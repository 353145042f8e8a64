package matching

import "testing"

func TestProcessOrder_CrossingOrdersFill(t *testing.T) {
	e := NewEngine()
	e.AddSymbol("AAPL")

	if _, err := e.ProcessOrder(Order{ID: 1, Symbol: "AAPL", Side: SideSell, Type: OrderTypeLimit, Price: 100_00, Quantity: 10}); err != nil {
		t.Fatalf("resting sell: %v", err)
	}

	fills, err := e.ProcessOrder(Order{ID: 2, Symbol: "AAPL", Side: SideBuy, Type: OrderTypeLimit, Price: 100_00, Quantity: 10})
	if err != nil {
		t.Fatalf("crossing buy: %v", err)
	}
	if len(fills) != 1 {
		t.Fatalf("len(fills) = %d, want 1", len(fills))
	}
	if fills[0].Quantity != 10 || fills[0].Price != 100_00 {
		t.Fatalf("fills[0] = %+v, want qty=10 price=10000", fills[0])
	}
	if fills[0].MakerOrderID != 1 || fills[0].TakerOrderID != 2 {
		t.Fatalf("fills[0] maker/taker = %d/%d, want 1/2", fills[0].MakerOrderID, fills[0].TakerOrderID)
	}
}

func TestProcessOrder_PartialFillRestsRemainder(t *testing.T) {
	e := NewEngine()
	e.AddSymbol("AAPL")

	if _, err := e.ProcessOrder(Order{ID: 1, Symbol: "AAPL", Side: SideSell, Type: OrderTypeLimit, Price: 100_00, Quantity: 5}); err != nil {
		t.Fatalf("resting sell: %v", err)
	}

	fills, err := e.ProcessOrder(Order{ID: 2, Symbol: "AAPL", Side: SideBuy, Type: OrderTypeLimit, Price: 100_00, Quantity: 10})
	if err != nil {
		t.Fatalf("crossing buy: %v", err)
	}
	if len(fills) != 1 || fills[0].Quantity != 5 {
		t.Fatalf("fills = %+v, want one fill of qty 5", fills)
	}

	if bidPrice, bidQty, ok := e.BestBid("AAPL"); !ok || bidPrice != 100_00 || bidQty != 5 {
		t.Fatalf("BestBid = (%d, %d, %v), want (10000, 5, true)", bidPrice, bidQty, ok)
	}
}

func TestProcessOrder_NonCrossingOrderRests(t *testing.T) {
	e := NewEngine()
	e.AddSymbol("AAPL")

	if _, err := e.ProcessOrder(Order{ID: 1, Symbol: "AAPL", Side: SideSell, Type: OrderTypeLimit, Price: 101_00, Quantity: 5}); err != nil {
		t.Fatalf("resting sell: %v", err)
	}

	fills, err := e.ProcessOrder(Order{ID: 2, Symbol: "AAPL", Side: SideBuy, Type: OrderTypeLimit, Price: 100_00, Quantity: 5})
	if err != nil {
		t.Fatalf("non-crossing buy: %v", err)
	}
	if len(fills) != 0 {
		t.Fatalf("fills = %+v, want none", fills)
	}
	if askPrice, _, ok := e.BestAsk("AAPL"); !ok || askPrice != 101_00 {
		t.Fatalf("BestAsk = (%d, _, %v), want (10100, _, true)", askPrice, ok)
	}
	if bidPrice, _, ok := e.BestBid("AAPL"); !ok || bidPrice != 100_00 {
		t.Fatalf("BestBid = (%d, _, %v), want (10000, _, true)", bidPrice, ok)
	}
}

func TestProcessOrder_MarketOrderDropsUnfilledRemainder(t *testing.T) {
	e := NewEngine()
	e.AddSymbol("AAPL")

	if _, err := e.ProcessOrder(Order{ID: 1, Symbol: "AAPL", Side: SideSell, Type: OrderTypeLimit, Price: 100_00, Quantity: 3}); err != nil {
		t.Fatalf("resting sell: %v", err)
	}

	fills, err := e.ProcessOrder(Order{ID: 2, Symbol: "AAPL", Side: SideBuy, Type: OrderTypeMarket, Quantity: 10})
	if err != nil {
		t.Fatalf("market buy: %v", err)
	}
	if len(fills) != 1 || fills[0].Quantity != 3 {
		t.Fatalf("fills = %+v, want one fill of qty 3", fills)
	}
	if _, _, ok := e.BestBid("AAPL"); ok {
		t.Fatal("market order leftover should not rest in the book")
	}
}

func TestProcessOrder_UnknownSymbolErrors(t *testing.T) {
	e := NewEngine()
	if _, err := e.ProcessOrder(Order{ID: 1, Symbol: "MSFT", Side: SideBuy, Type: OrderTypeLimit, Price: 1, Quantity: 1}); err == nil {
		t.Fatal("expected an error for an unregistered symbol")
	}
}

func TestPriceTimePriority_FIFOAtSamePriceLevel(t *testing.T) {
	e := NewEngine()
	e.AddSymbol("AAPL")

	if _, err := e.ProcessOrder(Order{ID: 1, Symbol: "AAPL", Side: SideSell, Type: OrderTypeLimit, Price: 100_00, Quantity: 5}); err != nil {
		t.Fatalf("first resting sell: %v", err)
	}
	if _, err := e.ProcessOrder(Order{ID: 2, Symbol: "AAPL", Side: SideSell, Type: OrderTypeLimit, Price: 100_00, Quantity: 5}); err != nil {
		t.Fatalf("second resting sell: %v", err)
	}

	fills, err := e.ProcessOrder(Order{ID: 3, Symbol: "AAPL", Side: SideBuy, Type: OrderTypeLimit, Price: 100_00, Quantity: 5})
	if err != nil {
		t.Fatalf("crossing buy: %v", err)
	}
	if len(fills) != 1 || fills[0].MakerOrderID != 1 {
		t.Fatalf("fills = %+v, want the order resting first (ID 1) to fill first", fills)
	}
}
