package stage

import (
	"testing"
	"time"

	"github.com/tislib/roda-state/journal"
	"github.com/tislib/roda-state/pipe"
)

type tick struct {
	Sym   uint64
	Price int64
	TsNs  int64
}

type candle struct {
	Sym   uint64
	Open  int64
	High  int64
	Low   int64
	Close int64
	TsNs  int64
}

func candlePipe() pipe.Step[tick, candle] {
	type acc struct {
		c     candle
		ready bool
	}
	state := map[uint64]*acc{}
	return func(in tick) (candle, bool) {
		bucket := in.TsNs / 100_000
		key := in.Sym*1_000_000 + uint64(bucket)
		a, ok := state[key]
		if !ok {
			a = &acc{c: candle{Sym: in.Sym, Open: in.Price, High: in.Price, Low: in.Price, Close: in.Price, TsNs: bucket * 100_000}}
			state[key] = a
		} else {
			if in.Price > a.c.High {
				a.c.High = in.Price
			}
			if in.Price < a.c.Low {
				a.c.Low = in.Price
			}
			a.c.Close = in.Price
		}
		return a.c, true
	}
}

// TestStage_TickToCandle exercises the tick-to-candle scenario end to
// end through a real Stage bound to real journals.
func TestStage_TickToCandle(t *testing.T) {
	ticks, err := journal.NewAnon[tick](8)
	if err != nil {
		t.Fatalf("NewAnon(ticks): %v", err)
	}
	defer ticks.Close()

	candles, err := journal.NewAnon[candle](8)
	if err != nil {
		t.Fatalf("NewAnon(candles): %v", err)
	}
	defer candles.Close()

	tw, _ := ticks.Writer()
	for _, tk := range []tick{
		{Sym: 1, Price: 10, TsNs: 0},
		{Sym: 1, Price: 11, TsNs: 50_000},
		{Sym: 1, Price: 9, TsNs: 90_000},
		{Sym: 1, Price: 12, TsNs: 150_000},
	} {
		if err := tw.Append(tk); err != nil {
			t.Fatalf("append tick: %v", err)
		}
	}

	cw, _ := candles.Writer()
	st := New[tick, candle](ticks.Reader(), candlePipe(), cw, time.Millisecond)

	for i := 0; i < 4; i++ {
		res, err := st.Step()
		if err != nil {
			t.Fatalf("Step: %v", err)
		}
		if res != Worked {
			t.Fatalf("expected Worked at iteration %d, got %v", i, res)
		}
	}
	if res, _ := st.Step(); res != Idle {
		t.Errorf("expected Idle once ticks are exhausted, got %v", res)
	}

	cr := candles.Reader()

	if !cr.TryAdvance() {
		t.Fatalf("expected a candle at sequence 0")
	}
	c0, _ := cr.Get()
	want0 := candle{Sym: 1, Open: 10, High: 11, Low: 9, Close: 9, TsNs: 0}
	if *c0 != want0 {
		t.Errorf("sequence 0: expected %+v, got %+v", want0, *c0)
	}

	if !cr.TryAdvance() {
		t.Fatalf("expected a candle at sequence 1")
	}
	c1, _ := cr.Get()
	want1 := candle{Sym: 1, Open: 12, High: 12, Low: 12, Close: 12, TsNs: 100_000}
	if *c1 != want1 {
		t.Errorf("sequence 1: expected %+v, got %+v", want1, *c1)
	}

	if candles.Len() != 2 {
		t.Errorf("expected exactly 2 candles, got %d", candles.Len())
	}
}

// TestStage_Determinism verifies that for a deterministic pipe and a
// fixed input sequence, repeated runs produce identical output
// regardless of timing.
func TestStage_Determinism(t *testing.T) {
	run := func() []candle {
		ticks, _ := journal.NewAnon[tick](4)
		defer ticks.Close()
		candles, _ := journal.NewAnon[candle](4)
		defer candles.Close()

		tw, _ := ticks.Writer()
		for _, tk := range []tick{{1, 10, 0}, {1, 11, 50_000}, {1, 9, 90_000}, {1, 12, 150_000}} {
			tw.Append(tk)
		}
		cw, _ := candles.Writer()
		st := New[tick, candle](ticks.Reader(), candlePipe(), cw, time.Millisecond)
		for {
			res, _ := st.Step()
			if res == Idle {
				break
			}
		}

		var out []candle
		cr := candles.Reader()
		for cr.TryAdvance() {
			v, _ := cr.Get()
			out = append(out, *v)
		}
		return out
	}

	a := run()
	b := run()
	if len(a) != len(b) {
		t.Fatalf("non-deterministic output length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic output at %d: %+v vs %+v", i, a[i], b[i])
		}
	}
}

// TestStage_DrainTransitionsToStopped exercises the Running -> Draining ->
// Stopped state machine.
func TestStage_DrainTransitionsToStopped(t *testing.T) {
	ticks, _ := journal.NewAnon[tick](2)
	defer ticks.Close()
	candles, _ := journal.NewAnon[candle](2)
	defer candles.Close()

	cw, _ := candles.Writer()
	st := New[tick, candle](ticks.Reader(), candlePipe(), cw, 10*time.Millisecond)

	if st.State() != Running {
		t.Fatalf("expected initial state Running, got %v", st.State())
	}

	st.RequestShutdown()
	if st.State() != Draining {
		t.Fatalf("expected Draining after RequestShutdown, got %v", st.State())
	}

	// First idle Step starts the grace clock; it should not stop immediately.
	if _, err := st.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if st.State() != Draining {
		t.Fatalf("expected still Draining immediately after first idle step, got %v", st.State())
	}

	time.Sleep(15 * time.Millisecond)
	if _, err := st.Step(); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if st.State() != Stopped {
		t.Fatalf("expected Stopped after grace period elapsed, got %v", st.State())
	}
}
