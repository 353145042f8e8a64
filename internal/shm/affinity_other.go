//go:build !linux

package shm

// PinThreadToCPU is a no-op on platforms without sched_setaffinity.
// Absent platform support, threads simply remain unpinned.
func PinThreadToCPU(cpu int) error { return nil }

// AffinitySupported reports whether CPU pinning is available on this platform.
func AffinitySupported() bool { return false }
