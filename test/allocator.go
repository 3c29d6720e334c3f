package test

import (
	"sync"
	"unsafe"

	"github.com/pkg/errors"
)

// ErrAllocationFailed is returned by allocator when allocation failure is requested.
var ErrAllocationFailed = errors.New("allocation failed")

// NewAllocator creates buffer allocator used in tests.
func NewAllocator() *Allocator {
	return &Allocator{
		live: map[*byte]uint64{},
	}
}

// Allocator is the allocator implementation used in tests. It verifies that every buffer is freed exactly once.
type Allocator struct {
	mu         sync.Mutex
	live       map[*byte]uint64
	allocated  uint64
	freed      uint64
	failAt     uint64
	operations uint64
}

// Allocate allocates buffer.
func (a *Allocator) Allocate(size uint64) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.operations++
	if a.failAt != 0 && a.operations == a.failAt {
		return nil, errors.WithStack(ErrAllocationFailed)
	}

	// Capacity is never zero, so every buffer has unique address.
	data := make([]byte, size, size+1)
	a.live[unsafe.SliceData(data)] = size
	a.allocated += size
	return data, nil
}

// Free frees buffer.
func (a *Allocator) Free(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	ptr := unsafe.SliceData(data)
	size, exists := a.live[ptr]
	if !exists {
		return errors.Errorf("buffer %p is not allocated", ptr)
	}
	if size != uint64(len(data)) {
		return errors.Errorf("buffer %p has size %d, but %d is freed", ptr, size, len(data))
	}
	delete(a.live, ptr)
	a.freed += size
	return nil
}

// FailAt makes the n-th allocation, counted from now, fail.
func (a *Allocator) FailAt(n uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.failAt = a.operations + n
}

// Live returns the number of buffers not freed yet.
func (a *Allocator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.live)
}

// LiveBytes returns the number of bytes not freed yet.
func (a *Allocator) LiveBytes() uint64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.allocated - a.freed
}
