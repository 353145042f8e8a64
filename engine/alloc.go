package engine

import (
	"fmt"

	"github.com/tislib/roda-state/journal"
	"github.com/tislib/roda-state/slotstore"
)

// CreateJournal allocates an anonymous shared-memory region sized for
// capacity items of T, wraps it as a journal.Journal[T], registers it
// with e so Close releases it later, and pins it into RAM if
// Config.PinMemory is set.
//
// Go methods cannot carry their own type parameters, so this lives as a
// free function taking *Engine rather than an (*Engine) method.
func CreateJournal[T any](e *Engine, name string, capacity uint64) (*journal.Journal[T], error) {
	j, err := journal.NewAnon[T](capacity)
	if err != nil {
		return nil, fmt.Errorf("engine: create journal %q: %w", name, err)
	}
	e.afterCreate(name, j)
	return j, nil
}

// CreateSlotStore is CreateJournal's counterpart for slotstore.SlotStore[T].
func CreateSlotStore[T any](e *Engine, name string, capacity uint64) (*slotstore.SlotStore[T], error) {
	s, err := slotstore.NewAnon[T](capacity)
	if err != nil {
		return nil, fmt.Errorf("engine: create slot store %q: %w", name, err)
	}
	e.afterCreate(name, s)
	return s, nil
}

// pinnable is implemented by both journal.Journal[T] and
// slotstore.SlotStore[T].
type pinnable interface {
	Pin() error
}

func (e *Engine) afterCreate(name string, v interface{ Close() error }) {
	if e.cfg.PinMemory {
		if p, ok := v.(pinnable); ok {
			if err := p.Pin(); err != nil {
				e.logger.Warnw("memory pin failed, continuing unpinned", "name", name, "error", err)
			}
		}
	}
	e.Track(name, v)
}
