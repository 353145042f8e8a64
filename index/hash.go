package index

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Hash maps a key to a bucket probe seed. DirectIndex accepts either a
// user-provided Hash or DefaultHash.
type Hash[K any] func(K) uint64

// DefaultHash hashes the raw bytes of K with xxhash: a hash derived
// from bit identity, used as the fallback when callers don't supply
// their own hash. K must satisfy the same fixed-layout
// constraint as any journal/slot-store element (enforced by
// elemcheck.Validate at DirectIndex construction).
func DefaultHash[K any]() Hash[K] {
	return func(k K) uint64 {
		size := unsafe.Sizeof(k)
		if size == 0 {
			return 0
		}
		b := unsafe.Slice((*byte)(unsafe.Pointer(&k)), size)
		return xxhash.Sum64(b)
	}
}
