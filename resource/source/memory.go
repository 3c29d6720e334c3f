package source

import (
	"sort"

	"github.com/samber/lo"
)

// NewMemory creates source serving resources from memory. Used in tests and for embedded data.
func NewMemory(resources map[string][]byte) *Memory {
	names := lo.Keys(resources)
	sort.Strings(names)
	return &Memory{
		resources: resources,
		names:     names,
	}
}

// Memory is the in-memory source.
type Memory struct {
	resources map[string][]byte
	names     []string
}

// Open does nothing.
func (s *Memory) Open() error {
	return nil
}

// Size returns size of the resource.
func (s *Memory) Size(name string) uint64 {
	return uint64(len(s.resources[name]))
}

// ReadInto copies resource into the buffer.
func (s *Memory) ReadInto(name string, buf []byte) (uint64, error) {
	return uint64(copy(buf, s.resources[name])), nil
}

// Count returns the number of resources.
func (s *Memory) Count() int {
	return len(s.names)
}

// NameAt returns the name of i-th resource.
func (s *Memory) NameAt(i int) string {
	return s.names[i]
}

// Names returns names of all resources.
func (s *Memory) Names() []string {
	return append([]string{}, s.names...)
}
