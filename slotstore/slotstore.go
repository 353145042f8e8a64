// Package slotstore implements a fixed-capacity, random-access,
// memory-mapped array of T with per-slot seqlock version counters,
// guaranteeing torn-free snapshot reads without locks.
//
// Each slot's monotonic version counter is the same memory-ordering
// gate as a ring buffer's sequence number — writes to the slot must
// complete before the version update publishes them — generalized from
// a single gate to one version counter per slot, plus the
// double-load-compare idiom of a classic shared-memory seqlock.
package slotstore

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/tislib/roda-state/internal/elemcheck"
	"github.com/tislib/roda-state/internal/shm"
)

// header mirrors journal's header shape: the first field is repurposed
// as the version array's byte offset instead of a write index, since a
// slot store has no producer cursor.
type header struct {
	versionArrayOffset uint64
	capacity           uint64
	elemSize           uint64
	_                  [shm.CacheLineSize - 3*8]byte
}

const headerSize = int(unsafe.Sizeof(header{}))

// SlotStore is a fixed-size, random-access array of T with torn-free
// snapshot reads.
type SlotStore[T any] struct {
	region   *shm.Region
	hdr      *header
	versions []uint64
	data     []T
}

// New wraps an already-allocated region as a slot store of the given
// capacity, initializing the header and the version array to all-even
// (all slots unwritten but valid-to-read-as-zero).
func New[T any](region *shm.Region, capacity uint64) (*SlotStore[T], error) {
	if err := elemcheck.Validate[T](); err != nil {
		return nil, fmt.Errorf("slotstore: invalid element type: %w", err)
	}

	var zero T
	elemSize := unsafe.Sizeof(zero)
	versionBytes := int(capacity) * 8
	dataOffset := roundUpToCacheLine(headerSize + versionBytes)
	required := dataOffset + int(capacity)*int(elemSize)

	buf := region.Bytes()
	if len(buf) < required {
		return nil, fmt.Errorf("slotstore: region too small: need %d bytes, have %d", required, len(buf))
	}

	hdr := (*header)(unsafe.Pointer(&buf[0]))
	hdr.versionArrayOffset = uint64(headerSize)
	hdr.capacity = capacity
	hdr.elemSize = uint64(elemSize)

	var versions []uint64
	if capacity > 0 {
		versions = unsafe.Slice((*uint64)(unsafe.Pointer(&buf[headerSize])), capacity)
	}
	for i := range versions {
		versions[i] = 0
	}

	dataBytes := buf[dataOffset:required]
	var data []T
	if capacity > 0 {
		data = unsafe.Slice((*T)(unsafe.Pointer(&dataBytes[0])), capacity)
	}

	return &SlotStore[T]{region: region, hdr: hdr, versions: versions, data: data}, nil
}

func roundUpToCacheLine(n int) int {
	rem := n % shm.CacheLineSize
	if rem == 0 {
		return n
	}
	return n + (shm.CacheLineSize - rem)
}

// Capacity returns the fixed slot count chosen at creation.
func (s *SlotStore[T]) Capacity() uint64 {
	return s.hdr.capacity
}

// Close releases the underlying mapped region.
func (s *SlotStore[T]) Close() error {
	return s.region.Close()
}

// Pin advises the OS to keep the slot store's region resident. Failure
// is not fatal; callers typically log and continue.
func (s *SlotStore[T]) Pin() error {
	return s.region.Pin()
}

// Set writes value into slot using the seqlock write protocol: the
// version is incremented to odd, the element is written, then the
// version is incremented back to even. Returns false if slot is out of
// range. Callers must serialize writes to the same slot themselves (or
// own it exclusively); slotstore does not arbitrate between writers.
func (s *SlotStore[T]) Set(slot uint64, value T) bool {
	if slot >= s.hdr.capacity {
		return false
	}
	v := &s.versions[slot]
	atomic.AddUint64(v, 1) // now odd: write in progress
	s.data[slot] = value
	atomic.AddUint64(v, 1) // now even: write complete
	return true
}

// Get performs a seqlock snapshot read: it retries while the observed
// version is odd or changes across the read, and returns (zero, false)
// only if slot is out of range.
func (s *SlotStore[T]) Get(slot uint64) (T, bool) {
	var zero T
	if slot >= s.hdr.capacity {
		return zero, false
	}
	v := &s.versions[slot]
	for {
		v1 := atomic.LoadUint64(v)
		if v1&1 == 1 {
			continue
		}
		val := s.data[slot]
		v2 := atomic.LoadUint64(v)
		if v1 == v2 {
			return val, true
		}
	}
}

// Version returns the current raw version counter for slot, mainly for
// tests. It returns 0 if slot is out of range.
func (s *SlotStore[T]) Version(slot uint64) uint64 {
	if slot >= s.hdr.capacity {
		return 0
	}
	return atomic.LoadUint64(&s.versions[slot])
}
