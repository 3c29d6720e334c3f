package resource

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// Handle carries the bytes of loaded resource.
// Handle is reference counted. Every owner calls Release once, the last one destroys the handle,
// which reports released bytes to the owning cache.
type Handle struct {
	name  string
	cache *Cache
	data  []byte
	refs  atomic.Int64

	// building is set while processors run, only then the buffer may be replaced.
	building bool
	// stage names the processor being applied.
	stage string

	// Recency queue links, guarded by cache mutex.
	prev, next *Handle
	queued     bool
}

// Name returns the name of the resource.
func (h *Handle) Name() string {
	return h.name
}

// Bytes returns the content of the resource.
func (h *Handle) Bytes() []byte {
	return h.data
}

// Size returns the number of bytes accounted for the resource.
func (h *Handle) Size() uint64 {
	return uint64(len(h.data))
}

// Retain adds new reference to the handle.
func (h *Handle) Retain() *Handle {
	if h.refs.Add(1) <= 1 {
		panic(errors.Errorf("retaining destroyed resource %q", h.name))
	}
	return h
}

// Release drops the reference to the handle.
func (h *Handle) Release() {
	if h.drop() {
		h.cache.destroy(h)
	}
}

// Replace swaps the buffer of the resource with a new one of the requested size allocated by the cache.
// It may be called only by a processor while the resource is being loaded.
// The old content is copied to the beginning of the new buffer.
func (h *Handle) Replace(size uint64) ([]byte, error) {
	if !h.building {
		return nil, errors.Errorf("resource %q is sealed", h.name)
	}

	data, err := h.cache.allocateLocked(size, origin{file: h.name, function: h.stage})
	if err != nil {
		return nil, err
	}
	copy(data, h.data)

	old := h.data
	h.data = data
	if err := h.cache.releaseLocked(old); err != nil {
		return nil, err
	}
	return data, nil
}

// tryRetain upgrades weak reference kept by the cache index. It fails if handle has been already dropped by
// the last owner.
func (h *Handle) tryRetain() bool {
	for {
		refs := h.refs.Load()
		if refs <= 0 {
			return false
		}
		if h.refs.CompareAndSwap(refs, refs+1) {
			return true
		}
	}
}

// drop decrements reference counter and tells if it was the last reference.
func (h *Handle) drop() bool {
	refs := h.refs.Add(-1)
	if refs < 0 {
		panic(errors.Errorf("resource %q released too many times", h.name))
	}
	return refs == 0
}
