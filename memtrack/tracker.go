package memtrack

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Config stores configuration of the tracker.
type Config struct {
	Logger *zap.Logger
}

// NewTracker creates new tracking allocator.
func NewTracker(config Config) *Tracker {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	return &Tracker{
		log:     config.Logger,
		records: NewMap(),
	}
}

// Tracker allocates memory and records the provenance of every live allocation.
// Callers opt into it explicitly, e.g. by passing it as the allocator of resource cache.
type Tracker struct {
	log *zap.Logger

	mu       sync.Mutex
	records  *Map
	disabled bool
}

// Allocate allocates size bytes and records the caller as its origin.
func (t *Tracker) Allocate(size uint64) ([]byte, error) {
	file, function, line := caller(2)
	return t.AllocateAt(size, file, function, line)
}

// AllocateAt allocates size bytes and records the provided origin.
func (t *Tracker) AllocateAt(size uint64, file, function string, line int) ([]byte, error) {
	if size == 0 {
		return []byte{}, nil
	}

	data, err := mmap(size)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.disabled {
		return data, nil
	}

	if err := t.records.Insert(Record{
		Address:      address(data),
		SourceFile:   file,
		FunctionName: function,
		LineNumber:   line,
	}); err != nil {
		// Kernel handed out a live address twice or the map is corrupted, nothing sane can be done.
		panic(err)
	}

	return data, nil
}

// Free releases memory returned by Allocate.
func (t *Tracker) Free(data []byte) error {
	if cap(data) == 0 {
		return nil
	}

	// Disabling stops recording only, records of allocations made before must still go away.
	t.mu.Lock()
	eraseErr := t.records.Erase(address(data))
	if t.disabled && errors.Is(eraseErr, ErrUntrackedAddress) {
		eraseErr = nil
	}
	t.mu.Unlock()

	if err := munmap(data); err != nil {
		return err
	}
	return eraseErr
}

// Origin returns the record of the allocation.
func (t *Tracker) Origin(data []byte) (Record, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.records.Lookup(address(data))
}

// Disable suspends tracking. Allocations done while disabled are not recorded, frees still erase records.
func (t *Tracker) Disable() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disabled = true
}

// Enable resumes tracking.
func (t *Tracker) Enable() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.disabled = false
}

// Leaks returns the records of all allocations which haven't been freed yet.
func (t *Tracker) Leaks() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.records.Records()
}

// Report formats the list of live allocations.
func (t *Tracker) Report() string {
	leaks := t.Leaks()

	b := &strings.Builder{}
	fmt.Fprintf(b, "%d live allocations\n", len(leaks))
	for _, r := range leaks {
		fmt.Fprintf(b, "%#x %s:%d %s\n", r.Address, filepath.Base(r.SourceFile), r.LineNumber, r.FunctionName)
	}
	return b.String()
}

// LogLeaks writes live allocations to the log, one warning per allocation.
func (t *Tracker) LogLeaks() {
	for _, r := range t.Leaks() {
		t.log.Warn("Memory leak",
			zap.String("address", fmt.Sprintf("%#x", r.Address)),
			zap.String("file", r.SourceFile),
			zap.String("function", r.FunctionName),
			zap.Int("line", r.LineNumber))
	}
}

func caller(skip int) (string, string, int) {
	pc, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "unknown", "unknown", 0
	}
	function := "unknown"
	if f := runtime.FuncForPC(pc); f != nil {
		function = f.Name()
	}
	return file, function, line
}
