package engine

import (
	"runtime"
	"time"
)

// BackoffConfig configures the per-worker adaptive backoff state machine.
// The thresholds are performance-sensitive and workload-dependent, so
// they live on the engine's Config rather than as package constants.
type BackoffConfig struct {
	// HotThreshold is idle_count's upper bound for the Hot state:
	// continuous retry, no pause.
	HotThreshold int
	// WarmThreshold is idle_count's upper bound for the Warm state: a CPU
	// pause hint is emitted each iteration.
	WarmThreshold int
	// ColdPark is how long a Cold-state worker yields to the OS
	// scheduler per idle iteration.
	ColdPark time.Duration
}

// DefaultBackoffConfig returns a reasonable set of default thresholds.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		HotThreshold:  1000,
		WarmThreshold: 100_000,
		ColdPark:      time.Millisecond,
	}
}

// backoffState tracks one worker's consecutive-idle-iteration count and
// applies the Hot -> Warm -> Cold policy. Any Worked result resets the
// counter to 0.
//
// Go has no portable x86 PAUSE intrinsic, so runtime.Gosched() stands in
// for a CPU pause hint during the Warm state, the same spin-then-yield
// shape as a classic ring-buffer consumer loop.
type backoffState struct {
	idleCount int
	cfg       BackoffConfig
}

func newBackoffState(cfg BackoffConfig) *backoffState {
	return &backoffState{cfg: cfg}
}

func (b *backoffState) onWork() {
	b.idleCount = 0
}

func (b *backoffState) onIdle() {
	switch {
	case b.idleCount < b.cfg.HotThreshold:
		// Hot: nothing to do, retry immediately next iteration.
	case b.idleCount < b.cfg.WarmThreshold:
		runtime.Gosched()
	default:
		time.Sleep(b.cfg.ColdPark)
	}
	b.idleCount++
}
