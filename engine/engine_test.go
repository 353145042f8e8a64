package engine

import (
	"context"
	"testing"
	"time"

	"github.com/tislib/roda-state/pipe"
	"github.com/tislib/roda-state/stage"
)

// TestEngine_SpawnDrivesStageToCompletion spawns a worker over a tiny
// identity stage and confirms every item written before shutdown is
// observed downstream.
func TestEngine_SpawnDrivesStageToCompletion(t *testing.T) {
	e := New(DefaultConfig(), nil)

	in, err := CreateJournal[int](e, "in", 8)
	if err != nil {
		t.Fatalf("CreateJournal(in): %v", err)
	}
	out, err := CreateJournal[int](e, "out", 8)
	if err != nil {
		t.Fatalf("CreateJournal(out): %v", err)
	}

	w, err := in.Writer()
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	for i := 0; i < 5; i++ {
		if err := w.Append(i); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}

	outWriter, err := out.Writer()
	if err != nil {
		t.Fatalf("out.Writer: %v", err)
	}
	st := stage.New[int, int](in.Reader(), pipe.Identity[int](), outWriter, 20*time.Millisecond)

	e.Spawn("identity", 0, st)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	if got := out.Len(); got != 5 {
		t.Fatalf("out.Len() = %d, want 5", got)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

// TestEngine_ShutdownTimesOutWhenStageNeverDrains confirms Shutdown
// honors ctx's deadline instead of blocking forever on a stuck worker.
func TestEngine_ShutdownTimesOutWhenStageNeverDrains(t *testing.T) {
	e := New(DefaultConfig(), nil)
	e.wg.Add(1) // never Done: simulates a worker that ignores the shutdown flag

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := e.Shutdown(ctx)
	if err == nil {
		t.Fatal("expected Shutdown to time out, got nil error")
	}
}

// TestEngine_PinMemoryFailureIsNonFatal exercises the PinMemory path on
// an anonymous (non-file-backed) region: Mlock may or may not succeed
// under the test sandbox's rlimits, but CreateJournal must succeed
// either way since a pin failure is only logged.
func TestEngine_PinMemoryFailureIsNonFatal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PinMemory = true
	e := New(cfg, nil)

	j, err := CreateJournal[int](e, "pinned", 4)
	if err != nil {
		t.Fatalf("CreateJournal with PinMemory: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	_ = j
}

// TestEngine_AffinityUnsupportedIsNonFatal confirms a configured CPU
// affinity assignment never fails the stage: the worker runs whether the
// pin to core 0 succeeds or is unavailable on this platform (in which
// case it continues unpinned).
func TestEngine_AffinityUnsupportedIsNonFatal(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Affinity[0] = 0
	e := New(cfg, nil)

	in, err := CreateJournal[int](e, "in", 2)
	if err != nil {
		t.Fatalf("CreateJournal: %v", err)
	}
	w, err := in.Writer()
	if err != nil {
		t.Fatalf("Writer: %v", err)
	}
	if err := w.Append(1); err != nil {
		t.Fatalf("Append: %v", err)
	}

	var got []int
	st := stage.NewTerminal[int, int](in.Reader(), pipe.Identity[int](), func(v int) {
		got = append(got, v)
	}, 20*time.Millisecond)

	e.Spawn("sink", 0, st)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("got = %v, want [1]", got)
	}
}
