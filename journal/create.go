package journal

import (
	"fmt"
	"unsafe"

	"github.com/tislib/roda-state/internal/shm"
)

// NewAnon creates an anonymous (in-process) journal of the given item
// capacity. This is the common case for a single-process pipeline.
func NewAnon[T any](capacity uint64) (*Journal[T], error) {
	var zero T
	size := headerSize + int(capacity)*int(unsafe.Sizeof(zero))
	region, err := shm.CreateAnon(size)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	j, err := New[T](region, capacity)
	if err != nil {
		region.Close()
		return nil, err
	}
	return j, nil
}

// NewFile creates a path-backed journal of the given item capacity. The
// on-disk layout is valid only within the creating process's lifetime.
func NewFile[T any](path string, capacity uint64) (*Journal[T], error) {
	var zero T
	size := headerSize + int(capacity)*int(unsafe.Sizeof(zero))
	region, err := shm.CreateFile(path, size)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	j, err := New[T](region, capacity)
	if err != nil {
		region.Close()
		return nil, err
	}
	return j, nil
}
