//go:build unix

// Package shm abstracts the memory-mapped regions backing journals and
// slot stores: anonymous (in-process) mappings and path-backed mappings,
// plus the non-fatal best-effort memory pin used to keep hot pages out of
// swap.
//
// Regions are fixed-size and pre-allocated, with a cache-line-aware
// layout, and never resize after creation.
package shm

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

// CacheLineSize is the assumed CPU cache line size used to pad hot atomics
// away from neighboring fields and from the data region.
const CacheLineSize = 64

// Region is a fixed-size, page-backed byte range shared between the
// writer and any number of readers in this process. It never resizes.
type Region struct {
	data []byte
	file *os.File
	mm   mmap.MMap
	anon bool
}

// CreateAnon creates an anonymous, process-private-but-shareable mapping
// of the given size. Used when the caller does not need the journal or
// slot store to survive outside this process's lifetime.
func CreateAnon(size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid region size %d", size)
	}
	data, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_ANON)
	if err != nil {
		return nil, fmt.Errorf("shm: anonymous mmap failed: %w", err)
	}
	return &Region{data: data, anon: true}, nil
}

// CreateFile creates or truncates the file at path to size and maps it.
// The mapping is valid for the lifetime of this process only; the
// on-disk layout is not a stable cross-process or cross-version format.
func CreateFile(path string, size int) (*Region, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid region size %d", size)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("shm: open %s: %w", path, err)
	}
	if err := f.Truncate(int64(size)); err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: truncate %s: %w", path, err)
	}
	mm, err := mmap.MapRegion(f, size, mmap.RDWR, 0, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}
	return &Region{data: []byte(mm), file: f, mm: mm}, nil
}

// Bytes returns the mapped region. The slice is valid until Close.
func (r *Region) Bytes() []byte {
	return r.data
}

// Pin advises the OS to keep the region resident (not swapped out).
// Failure to pin is not fatal — callers log and continue.
func (r *Region) Pin() error {
	if len(r.data) == 0 {
		return nil
	}
	return unix.Mlock(r.data)
}

// Unpin releases a prior Pin. Best-effort; errors are not actionable.
func (r *Region) Unpin() error {
	if len(r.data) == 0 {
		return nil
	}
	return unix.Munlock(r.data)
}

// Close unmaps the region and, for file-backed regions, closes the file.
func (r *Region) Close() error {
	if r.anon {
		if r.data == nil {
			return nil
		}
		return unix.Munmap(r.data)
	}
	if r.mm != nil {
		if err := r.mm.Unmap(); err != nil {
			return err
		}
	}
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}
