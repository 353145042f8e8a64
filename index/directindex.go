// Package index implements DirectIndex[S,K], a key→cursor map for O(1)
// lookup of the most recent journal element carrying a key, layered on
// top of slotstore.SlotStore the same way an order book keeps an O(1)
// order-ID map alongside its price levels so a cancel doesn't need to
// walk the book. DirectIndex generalizes that idea to a shared-memory,
// concurrently-readable structure instead of a thread-confined Go map.
package index

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tislib/roda-state/internal/elemcheck"
	"github.com/tislib/roda-state/journal"
	"github.com/tislib/roda-state/slotstore"
)

// ErrTableFull is returned internally when Compute cannot place a key
// because the bucket table has no empty or matching slot left to probe.
// This indicates the caller under-sized the bucket capacity relative to
// the expected key cardinality.
var ErrTableFull = errors.New("index: bucket table full, increase bucket capacity")

// bucket is a (key, cursor, occupied) triple, stored as a slotstore
// element so each bucket gets torn-free seqlock reads independent of
// the others.
type bucket[K any] struct {
	Key      K
	Cursor   uint64
	Occupied uint64 // 0 = empty, 1 = occupied; kept as uint64 to keep the struct word-aligned
}

// DirectIndex maps keys extracted from a source journal's elements to the
// cursor (sequence number) of the most recent element carrying that key.
type DirectIndex[S any, K comparable] struct {
	source  *journal.Journal[S]
	reader  *journal.Reader[S]
	buckets *slotstore.SlotStore[bucket[K]]
	count   uint64
	hash    Hash[K]

	lastComputed atomic.Uint64
	lastError    error
}

// New binds a DirectIndex to source, sizing the bucket table to
// bucketCapacity slots. Choose bucketCapacity so the load factor stays
// below a threshold (e.g. 0.7) relative to the expected key cardinality.
// If hash is nil, DefaultHash[K]() is used.
func New[S any, K comparable](source *journal.Journal[S], bucketCapacity uint64, hash Hash[K]) (*DirectIndex[S, K], error) {
	if err := elemcheck.Validate[K](); err != nil {
		return nil, fmt.Errorf("index: invalid key type: %w", err)
	}
	if hash == nil {
		hash = DefaultHash[K]()
	}
	buckets, err := slotstore.NewAnon[bucket[K]](bucketCapacity)
	if err != nil {
		return nil, fmt.Errorf("index: %w", err)
	}
	return &DirectIndex[S, K]{
		source:  source,
		reader:  source.Reader(),
		buckets: buckets,
		count:   bucketCapacity,
		hash:    hash,
	}, nil
}

// Close releases the bucket slot store's underlying region.
func (d *DirectIndex[S, K]) Close() error {
	return d.buckets.Close()
}

// Compute drains the internal reader over the source journal, extracting
// a key from each newly published element with keyOf and upserting
// K → cursor. It is amortized O(1) per newly published element. Errors
// are sticky: once a Compute call fails to place a key (table full),
// subsequent calls keep returning that error until the caller enlarges
// the index and rebuilds it.
func (d *DirectIndex[S, K]) Compute(keyOf func(S) K) error {
	if d.lastError != nil {
		return d.lastError
	}
	for d.reader.TryAdvance() {
		v, ok := d.reader.Get()
		if !ok {
			break
		}
		cursor := d.reader.Cursor() - 1
		k := keyOf(*v)
		if !d.upsert(k, cursor) {
			d.lastError = ErrTableFull
			return d.lastError
		}
	}
	d.lastComputed.Store(d.reader.Cursor())
	return nil
}

// Computed returns how much of the source journal has been indexed so far.
func (d *DirectIndex[S, K]) Computed() uint64 {
	return d.lastComputed.Load()
}

// upsert performs a linear probe, placing k→cursor in the first empty
// slot or overwriting the existing slot for an equal key (update in
// place — no tombstones are needed since there is no delete operation).
func (d *DirectIndex[S, K]) upsert(k K, cursor uint64) bool {
	if d.count == 0 {
		return false
	}
	start := d.hash(k) % d.count
	for i := uint64(0); i < d.count; i++ {
		slot := (start + i) % d.count
		b, ok := d.buckets.Get(slot)
		if !ok {
			continue
		}
		if b.Occupied == 0 || b.Key == k {
			d.buckets.Set(slot, bucket[K]{Key: k, Cursor: cursor, Occupied: 1})
			return true
		}
	}
	return false
}

// Lookup performs an open-addressed probe over the bucket table using
// seqlock snapshot reads, returning the cursor for the most recently
// computed value of key k.
func (d *DirectIndex[S, K]) Lookup(k K) (uint64, bool) {
	if d.count == 0 {
		return 0, false
	}
	start := d.hash(k) % d.count
	for i := uint64(0); i < d.count; i++ {
		slot := (start + i) % d.count
		b, ok := d.buckets.Get(slot)
		if !ok {
			break
		}
		if b.Occupied == 0 {
			return 0, false
		}
		if b.Key == k {
			return b.Cursor, true
		}
	}
	return 0, false
}
