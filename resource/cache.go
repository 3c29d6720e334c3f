package resource

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/outofforest/mass"
)

const handlesPerBatch = 64

// Config stores configuration of the cache.
type Config struct {
	// BudgetBytes is the advisory limit of memory used by cached resources.
	BudgetBytes uint64

	// Source provides resources.
	Source Source

	// Allocator allocates resource buffers. HeapAllocator is used if nil.
	Allocator Allocator

	Logger *zap.Logger
}

// Stats stores cache counters.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Evictions uint64
	Overruns  uint64
}

// New creates new resource cache.
func New(config Config) *Cache {
	if config.Allocator == nil {
		config.Allocator = HeapAllocator{}
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Cache{
		config:  config,
		log:     config.Logger,
		handles: mass.New[Handle](handlesPerBatch),
		index:   map[string]*Handle{},
	}
}

// Cache keeps recently used resources in memory.
//
// Cache holds one reference to every handle in its recency queue. Handles are indexed by name without holding
// a reference, so a handle referenced only by callers is still returned by the cache.
type Cache struct {
	config Config
	log    *zap.Logger

	mu         sync.Mutex
	handles    *mass.Mass[Handle]
	head, tail *Handle
	index      map[string]*Handle
	processors []Processor
	usedBytes  uint64
	stats      Stats
}

// RegisterProcessor adds processor applied to resources loaded after the registration.
func (c *Cache) RegisterProcessor(processor Processor) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.processors = append(c.processors, processor)
}

// Handle returns handle of the resource, loading it if needed. Caller must release the handle.
func (c *Cache) Handle(name string) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if h, exists := c.index[name]; exists && h.tryRetain() {
		c.stats.Hits++
		c.promoteLocked(h)
		return h, nil
	}

	c.stats.Misses++
	return c.loadLocked(name)
}

// Preload loads the resource into the cache without returning the handle.
func (c *Cache) Preload(name string) error {
	h, err := c.Handle(name)
	if err != nil {
		return err
	}
	h.Release()
	return nil
}

// Flush drops all the references held by the cache.
// Resources still referenced by callers survive but are no longer reachable by name until reloaded.
func (c *Cache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for c.tail != nil {
		h := c.tail
		c.unlinkLocked(h)
		if h.drop() {
			c.destroyLocked(h)
		}
	}
	clear(c.index)
}

// Allocate allocates buffer accounted in the cache budget.
// Least recently used resources are evicted to make room. If it is not possible the allocation proceeds
// anyway, because the budget is advisory.
func (c *Cache) Allocate(size uint64) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	o := origin{file: "unknown", function: "unknown"}
	if pc, file, line, ok := runtime.Caller(1); ok {
		o.file = file
		o.line = line
		if f := runtime.FuncForPC(pc); f != nil {
			o.function = f.Name()
		}
	}
	return c.allocateLocked(size, o)
}

// MemoryReleased tells the cache that memory accounted for a resource was released.
func (c *Cache) MemoryReleased(size uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memoryReleasedLocked(size)
}

// UsedBytes returns the number of bytes used by resources.
func (c *Cache) UsedBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.usedBytes
}

// BudgetBytes returns the configured budget.
func (c *Cache) BudgetBytes() uint64 {
	return c.config.BudgetBytes
}

// Loaded tells if live handle of the resource exists.
func (c *Cache) Loaded(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	h, exists := c.index[name]
	return exists && h.refs.Load() > 0
}

// Queue returns names of resources held by the cache, the most recently used first.
func (c *Cache) Queue() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := []string{}
	for h := c.head; h != nil; h = h.next {
		names = append(names, h.name)
	}
	return names
}

// Stats returns cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.stats
}

func (c *Cache) loadLocked(name string) (*Handle, error) {
	size := c.config.Source.Size(name)
	data, err := c.allocateLocked(size, origin{file: name, function: loadStage})
	if err != nil {
		return nil, err
	}

	n, err := c.config.Source.ReadInto(name, data)
	if err != nil {
		if freeErr := c.releaseLocked(data); freeErr != nil {
			c.log.Error("Releasing resource memory failed", zap.String("resource", name), zap.Error(freeErr))
		}
		return nil, errors.Wrapf(err, "reading resource %q failed", name)
	}
	if n < size {
		c.log.Warn("Resource shorter than declared", zap.String("resource", name), zap.Uint64("size", size),
			zap.Uint64("read", n))
	}

	h := c.handles.New()
	h.name = name
	h.cache = c
	h.data = data
	// One reference for the recency queue, one for the caller.
	h.refs.Store(2)

	h.building = true
	for _, p := range c.processors {
		if !p.Match(h) {
			continue
		}
		h.stage = fmt.Sprintf("%T", p)
		if err := p.Process(h); err != nil {
			c.log.Warn("Processing resource failed", zap.String("resource", name), zap.Error(err))
		}
		break
	}
	h.building = false
	h.stage = ""

	c.pushFrontLocked(h)
	c.index[name] = h

	return h, nil
}

// loadStage is the origin function reported for buffers resources are read into.
const loadStage = "load"

// origin identifies the requester of a buffer.
type origin struct {
	file     string
	function string
	line     int
}

func (c *Cache) allocateLocked(size uint64, o origin) ([]byte, error) {
	for c.usedBytes+size > c.config.BudgetBytes && c.tail != nil {
		c.evictLocked()
	}

	if c.usedBytes+size > c.config.BudgetBytes {
		c.stats.Overruns++
		c.log.Warn("Resource cache is over budget",
			zap.Uint64("budget", c.config.BudgetBytes),
			zap.Uint64("used", c.usedBytes),
			zap.Uint64("requested", size))
	}

	var data []byte
	var err error
	if a, ok := c.config.Allocator.(OriginAllocator); ok {
		data, err = a.AllocateAt(size, o.file, o.function, o.line)
	} else {
		data, err = c.config.Allocator.Allocate(size)
	}
	if err != nil {
		return nil, err
	}
	c.usedBytes += size
	return data, nil
}

func (c *Cache) releaseLocked(data []byte) error {
	c.memoryReleasedLocked(uint64(len(data)))
	return c.config.Allocator.Free(data)
}

func (c *Cache) memoryReleasedLocked(size uint64) {
	if size > c.usedBytes {
		c.log.Error("More memory released than allocated",
			zap.Uint64("used", c.usedBytes),
			zap.Uint64("released", size))
		c.usedBytes = 0
		return
	}
	c.usedBytes -= size
}

func (c *Cache) evictLocked() {
	h := c.tail
	c.unlinkLocked(h)
	c.stats.Evictions++
	if h.drop() {
		c.destroyLocked(h)
	}
}

func (c *Cache) destroy(h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.destroyLocked(h)
}

func (c *Cache) destroyLocked(h *Handle) {
	if c.index[h.name] == h {
		delete(c.index, h.name)
	}

	data := h.data
	h.data = nil
	if err := c.releaseLocked(data); err != nil {
		c.log.Error("Releasing resource memory failed", zap.String("resource", h.name), zap.Error(err))
	}
}

func (c *Cache) promoteLocked(h *Handle) {
	if h.queued {
		c.unlinkLocked(h)
	} else {
		// Handle referenced only by callers gets the cache reference back.
		h.refs.Add(1)
	}
	c.pushFrontLocked(h)
}

func (c *Cache) pushFrontLocked(h *Handle) {
	h.prev = nil
	h.next = c.head
	if c.head != nil {
		c.head.prev = h
	}
	c.head = h
	if c.tail == nil {
		c.tail = h
	}
	h.queued = true
}

func (c *Cache) unlinkLocked(h *Handle) {
	if h.prev != nil {
		h.prev.next = h.next
	} else {
		c.head = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	} else {
		c.tail = h.prev
	}
	h.prev = nil
	h.next = nil
	h.queued = false
}
