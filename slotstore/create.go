package slotstore

import (
	"fmt"
	"unsafe"

	"github.com/tislib/roda-state/internal/shm"
)

// NewAnon creates an anonymous slot store of the given capacity.
func NewAnon[T any](capacity uint64) (*SlotStore[T], error) {
	var zero T
	versionBytes := int(capacity) * 8
	dataOffset := roundUpToCacheLine(headerSize + versionBytes)
	size := dataOffset + int(capacity)*int(unsafe.Sizeof(zero))

	region, err := shm.CreateAnon(size)
	if err != nil {
		return nil, fmt.Errorf("slotstore: %w", err)
	}
	st, err := New[T](region, capacity)
	if err != nil {
		region.Close()
		return nil, err
	}
	return st, nil
}

// NewFile creates a path-backed slot store of the given capacity.
func NewFile[T any](path string, capacity uint64) (*SlotStore[T], error) {
	var zero T
	versionBytes := int(capacity) * 8
	dataOffset := roundUpToCacheLine(headerSize + versionBytes)
	size := dataOffset + int(capacity)*int(unsafe.Sizeof(zero))

	region, err := shm.CreateFile(path, size)
	if err != nil {
		return nil, fmt.Errorf("slotstore: %w", err)
	}
	st, err := New[T](region, capacity)
	if err != nil {
		region.Close()
		return nil, err
	}
	return st, nil
}
