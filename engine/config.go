package engine

// Config configures an Engine's thread, backoff, and affinity knobs.
type Config struct {
	// Backoff configures the adaptive idle policy shared by every worker
	// unless a stage overrides it via SpawnWithBackoff.
	Backoff BackoffConfig

	// Affinity maps stage index -> OS core id. A stage index absent from
	// the map runs unpinned.
	Affinity map[int]int

	// PinMemory requests that journal/slot-store regions created through
	// the engine be locked into RAM. Failure to pin is logged, not fatal.
	PinMemory bool

	// DrainGrace bounds how long a draining stage waits for its input
	// reader to go quiet before it is considered Stopped.
	DrainGrace int64 // nanoseconds; see stage.New's graceTimeout parameter
}

// DefaultConfig returns reasonable defaults: default backoff thresholds,
// no CPU pinning, no memory pinning, a 50ms drain grace period.
func DefaultConfig() Config {
	return Config{
		Backoff:    DefaultBackoffConfig(),
		Affinity:   map[int]int{},
		PinMemory:  false,
		DrainGrace: int64(50 * 1e6), // 50ms in nanoseconds
	}
}
