package pipe

import "time"

// Map always forwards f(in); it never drops.
func Map[In, Out any](f func(In) Out) Step[In, Out] {
	return func(in In) (Out, bool) {
		return f(in), true
	}
}

// Filter forwards in unchanged when p(in) holds, otherwise drops it.
func Filter[In any](p func(In) bool) Step[In, In] {
	return func(in In) (In, bool) {
		if p(in) {
			return in, true
		}
		var zero In
		return zero, false
	}
}

// Inspect runs f for its side effect, then always forwards in unchanged.
func Inspect[In any](f func(In)) Step[In, In] {
	return func(in In) (In, bool) {
		f(in)
		return in, true
	}
}

// Stateful maintains a key->state table private to the stage's worker
// thread: no other goroutine ever touches this state. On each input it
// either initializes the state for a never-seen key with init, or folds
// the input into the existing state with update, stores the result, and
// forwards it. capacityHint pre-reserves the map to avoid growth on the
// hot path.
func Stateful[In any, K comparable, State any](
	keyOf func(In) K,
	init func(In) State,
	update func(State, In) State,
	capacityHint int,
) Step[In, State] {
	states := make(map[K]State, capacityHint)
	return func(in In) (State, bool) {
		k := keyOf(in)
		s, ok := states[k]
		if ok {
			s = update(s, in)
		} else {
			s = init(in)
		}
		states[k] = s
		return s, true
	}
}

// Delta maintains the previous input seen for each key, privately within
// the stage's worker. compare receives the current input and a pointer to
// the previous input for that key (nil on the first sighting) and decides
// both what to emit and whether to emit at all.
func Delta[In any, K comparable, Out any](
	keyOf func(In) K,
	compare func(current In, previous *In) (Out, bool),
	capacityHint int,
) Step[In, Out] {
	previous := make(map[K]In, capacityHint)
	return func(in In) (Out, bool) {
		k := keyOf(in)
		var prevPtr *In
		if p, ok := previous[k]; ok {
			prevCopy := p
			prevPtr = &prevCopy
		}
		out, emit := compare(in, prevPtr)
		previous[k] = in
		return out, emit
	}
}

// DedupBy drops an input if its key equals the key of the last input that
// passed through, regardless of how many distinct keys interleave in
// between. It tracks a single "last key" cursor, not one per key: e.g.
// [1,1,2,2,2,3,1] collapses to [1,2,3,1].
func DedupBy[In any, K comparable](keyOf func(In) K) Step[In, In] {
	var last K
	haveLast := false
	return func(in In) (In, bool) {
		k := keyOf(in)
		if haveLast && last == k {
			var zero In
			return zero, false
		}
		last = k
		haveLast = true
		return in, true
	}
}

// Histogram is the external collaborator pipe.Latency records into. The
// core pipe package depends only on this single-method interface, keeping
// metrics instrumentation out of its scope; metrics.LatencyHistogram (a satellite
// package wrapping prometheus/client_golang) is one concrete
// implementation.
type Histogram interface {
	Observe(seconds float64)
}

// Latency samples the monotonic clock at entry (entryTime, extracted from
// the item itself — e.g. an ingestion timestamp stamped by an earlier
// stage) and at exit (time.Now, when this element runs), records the
// elapsed duration into hist, and forwards the item unchanged.
func Latency[In any](hist Histogram, entryTime func(In) time.Time) Step[In, In] {
	return func(in In) (In, bool) {
		start := entryTime(in)
		hist.Observe(time.Since(start).Seconds())
		return in, true
	}
}
