package journal

import "sync/atomic"

// Reader is an independent cursor over a Journal. It never shares state
// with other readers of the same journal.
type Reader[T any] struct {
	j       *Journal[T]
	cursor  uint64
	current uint64
	hasItem bool
}

// TryAdvance advances the cursor by one item if one is available. Returns
// true iff local_cursor < write_index.load(Acquire); the item at the
// pre-increment cursor becomes the "available" item for Get.
func (r *Reader[T]) TryAdvance() bool {
	widx := atomic.LoadUint64(&r.j.hdr.writeIndex)
	if r.cursor >= widx {
		return false
	}
	r.current = r.cursor
	r.cursor++
	r.hasItem = true
	return true
}

// Cursor returns the reader's current local cursor (count of items
// consumed so far via TryAdvance).
func (r *Reader[T]) Cursor() uint64 {
	return r.cursor
}

// Get returns a borrowed view of the item made current by the most recent
// successful TryAdvance, or (nil, false) if none has been made current.
// The borrow is valid until the next mutating call on this reader.
func (r *Reader[T]) Get() (*T, bool) {
	if !r.hasItem {
		return nil, false
	}
	return &r.j.data[r.current], true
}

// GetAt returns a borrowed view of the item at absolute sequence number s,
// provided s < write_index.
func (r *Reader[T]) GetAt(s uint64) (*T, bool) {
	widx := atomic.LoadUint64(&r.j.hdr.writeIndex)
	if s >= widx {
		return nil, false
	}
	return &r.j.data[s], true
}

// GetLast returns a borrowed view of the most recently published item.
func (r *Reader[T]) GetLast() (*T, bool) {
	widx := atomic.LoadUint64(&r.j.hdr.writeIndex)
	if widx == 0 {
		return nil, false
	}
	return &r.j.data[widx-1], true
}

// GetWindow returns a borrowed view of n consecutive items ending at
// sequence end, provided all of them are published. Go has no const
// generics for a fixed-length array return, so the window length is an
// ordinary parameter and the view is a slice rather than a fixed-size
// array.
func (r *Reader[T]) GetWindow(n int, end uint64) ([]T, bool) {
	if n <= 0 {
		return nil, false
	}
	widx := atomic.LoadUint64(&r.j.hdr.writeIndex)
	if end >= widx {
		return nil, false
	}
	if end+1 < uint64(n) {
		return nil, false
	}
	start := end + 1 - uint64(n)
	return r.j.data[start : end+1], true
}

// With invokes f with the borrowed view of the current item, if any.
func (r *Reader[T]) With(f func(*T)) bool {
	v, ok := r.Get()
	if !ok {
		return false
	}
	f(v)
	return true
}

// WithAt invokes f with the borrowed view of the item at sequence s, if published.
func (r *Reader[T]) WithAt(s uint64, f func(*T)) bool {
	v, ok := r.GetAt(s)
	if !ok {
		return false
	}
	f(v)
	return true
}

// WithLast invokes f with the borrowed view of the most recently published item.
func (r *Reader[T]) WithLast(f func(*T)) bool {
	v, ok := r.GetLast()
	if !ok {
		return false
	}
	f(v)
	return true
}
