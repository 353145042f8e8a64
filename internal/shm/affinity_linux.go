//go:build linux

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// PinThreadToCPU binds the calling OS thread to a single core. Callers
// must have already called runtime.LockOSThread on the goroutine invoking
// this, since affinity is a thread (not goroutine) property.
func PinThreadToCPU(cpu int) error {
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("shm: set affinity to cpu %d: %w", cpu, err)
	}
	return nil
}

// AffinitySupported reports whether CPU pinning is available on this platform.
func AffinitySupported() bool { return true }
