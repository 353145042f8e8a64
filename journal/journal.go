// Package journal implements a fixed-capacity, memory-mapped, append-only
// ring addressed by a monotonic sequence counter, with a
// single-writer/multi-reader wait-free protocol built on acquire/release
// atomics.
//
// The layout is a pre-allocated, cache-line-aware slot array with a plain
// atomic cursor. Unlike a wrapping ring buffer, this one never reclaims
// slots: once write_index reaches capacity, further appends fail rather
// than overwrite unread data, so the grow-forever ring is authoritative
// over the entries it holds. The backing storage is a memory-mapped
// region instead of a Go slice of pointers, so the data is castable in
// place from the mapped bytes with no GC pressure.
package journal

import (
	"errors"
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/tislib/roda-state/internal/elemcheck"
	"github.com/tislib/roda-state/internal/shm"
)

// Errors returned by Journal operations.
var (
	// ErrCapacityExceeded is returned by Append when write_index has
	// reached capacity. This is a sizing bug in the caller; the journal
	// never wraps or drops data to make room.
	ErrCapacityExceeded = errors.New("journal: capacity exceeded")

	// ErrWriterTaken is returned by Writer() if a writer handle has
	// already been issued for this journal: the handle is singular and
	// non-cloneable.
	ErrWriterTaken = errors.New("journal: writer handle already taken")

	// ErrInvalidElem is returned by New when T fails the elemcheck layout
	// validation. This is fatal: construction is refused outright.
	ErrInvalidElem = errors.New("journal: invalid element type")
)

// header is the 64-byte, cache-line-aligned region at offset 0 of the
// mapping.
type header struct {
	writeIndex uint64 // atomic; count of items ever appended
	capacity   uint64 // constant, set at creation
	elemSize   uint64 // constant, set at creation, in bytes
	_          [shm.CacheLineSize - 3*8]byte
}

const headerSize = int(unsafe.Sizeof(header{}))

func init() {
	if headerSize != shm.CacheLineSize {
		panic(fmt.Sprintf("journal: header size %d does not match cache line size %d", headerSize, shm.CacheLineSize))
	}
}

// Journal is a bounded, append-only, memory-mapped FIFO of T.
type Journal[T any] struct {
	region *shm.Region
	hdr    *header
	data   []T

	writerTaken atomic.Bool
}

// New wraps an already-allocated region as a journal with the given
// capacity, initializing the header. Callers typically reach this through
// NewAnon or NewFile, which allocate the region (engine.CreateJournal
// goes through NewAnon).
func New[T any](region *shm.Region, capacity uint64) (*Journal[T], error) {
	if err := elemcheck.Validate[T](); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidElem, err)
	}

	var zero T
	elemSize := unsafe.Sizeof(zero)
	required := headerSize + int(capacity)*int(elemSize)
	buf := region.Bytes()
	if len(buf) < required {
		return nil, fmt.Errorf("journal: region too small: need %d bytes, have %d", required, len(buf))
	}

	hdr := (*header)(unsafe.Pointer(&buf[0]))
	hdr.capacity = capacity
	hdr.elemSize = uint64(elemSize)
	atomic.StoreUint64(&hdr.writeIndex, 0)

	dataBytes := buf[headerSize:required]
	var data []T
	if capacity > 0 {
		data = unsafe.Slice((*T)(unsafe.Pointer(&dataBytes[0])), capacity)
	}

	return &Journal[T]{region: region, hdr: hdr, data: data}, nil
}

// Capacity returns the fixed item capacity chosen at creation.
func (j *Journal[T]) Capacity() uint64 {
	return j.hdr.capacity
}

// Len returns write_index.load(Acquire): the count of items ever appended.
func (j *Journal[T]) Len() uint64 {
	return atomic.LoadUint64(&j.hdr.writeIndex)
}

// Writer claims the singular writer handle for this journal. Calling it a
// second time returns ErrWriterTaken.
func (j *Journal[T]) Writer() (*Writer[T], error) {
	if !j.writerTaken.CompareAndSwap(false, true) {
		return nil, ErrWriterTaken
	}
	return &Writer[T]{j: j}, nil
}

// Reader returns a fresh, independent reader handle at cursor 0.
func (j *Journal[T]) Reader() *Reader[T] {
	return &Reader[T]{j: j}
}

// Close releases the underlying mapped region. Only the owner (typically
// the engine) should call this, after all readers and the writer are done.
func (j *Journal[T]) Close() error {
	return j.region.Close()
}

// Pin advises the OS to keep the journal's region resident (locked from
// swap). Failure is not fatal; callers typically log and continue.
func (j *Journal[T]) Pin() error {
	return j.region.Pin()
}

// append is the single-writer append path shared by Writer.Append. It is
// wait-free with bounded steps: one element write, one release store.
func (j *Journal[T]) append(v T) error {
	widx := atomic.LoadUint64(&j.hdr.writeIndex)
	if widx >= j.hdr.capacity {
		return ErrCapacityExceeded
	}
	j.data[widx] = v
	// Go's sync/atomic Store/Load pair is sequentially consistent, a
	// strictly stronger guarantee than release/acquire; there is no
	// weaker primitive in the standard library, so this is the idiomatic
	// Go rendition of the single-writer/multi-reader handoff.
	atomic.StoreUint64(&j.hdr.writeIndex, widx+1)
	return nil
}

// Writer is the singular, non-cloneable append handle for a Journal.
type Writer[T any] struct {
	j *Journal[T]
}

// Append writes v into the next slot and publishes it. Returns
// ErrCapacityExceeded if the journal is full.
func (w *Writer[T]) Append(v T) error {
	return w.j.append(v)
}

// Len returns the journal's current write index.
func (w *Writer[T]) Len() uint64 {
	return w.j.Len()
}

// Capacity returns the journal's fixed capacity.
func (w *Writer[T]) Capacity() uint64 {
	return w.j.Capacity()
}
