package storage

import (
	"github.com/squareup/tilestore/errors"
	"go.uber.org/atomic"
)

// Backend is the memory provider tiles draw their slot storage from.
type Backend interface {
	Allocate(size int) ([]byte, error)
	Release(buf []byte)
	AllocatedBytes() uint64
}

// HeapBackend allocates from the Go heap and keeps count of what is outstanding. A non zero limit caps the
// number of outstanding bytes.
type HeapBackend struct {
	limit     uint64
	allocated atomic.Uint64
}

var _ Backend = &HeapBackend{}

func NewHeapBackend() *HeapBackend {
	return &HeapBackend{}
}

func NewHeapBackendWithLimit(limit uint64) *HeapBackend {
	return &HeapBackend{limit: limit}
}

func (h *HeapBackend) Allocate(size int) ([]byte, error) {
	if size < 0 {
		return nil, errors.Errorf("invalid allocation size %d", size)
	}
	newTotal := h.allocated.Add(uint64(size))
	if h.limit != 0 && newTotal > h.limit {
		h.allocated.Sub(uint64(size))
		return nil, errors.Errorf("backend limit of %d bytes exceeded, %d bytes requested", h.limit, size)
	}
	return make([]byte, size), nil
}

func (h *HeapBackend) Release(buf []byte) {
	h.allocated.Sub(uint64(len(buf)))
}

func (h *HeapBackend) AllocatedBytes() uint64 {
	return h.allocated.Load()
}
