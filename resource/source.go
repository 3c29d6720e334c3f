package resource

// Source provides named read-only byte blobs.
type Source interface {
	// Open prepares the source. It must be called once before any other method.
	Open() error

	// Size returns the size of the resource, 0 if it doesn't exist.
	Size(name string) uint64

	// ReadInto reads the resource into the buffer, which must be at least Size bytes long.
	// It returns the number of bytes written, 0 if the resource doesn't exist.
	ReadInto(name string, buf []byte) (uint64, error)

	// Count returns the number of resources.
	Count() int

	// NameAt returns the name of i-th resource.
	NameAt(i int) string

	// Names returns names of all the resources.
	Names() []string
}

// Allocator allocates buffers for resources.
type Allocator interface {
	Allocate(size uint64) ([]byte, error)
	Free(data []byte) error
}

// OriginAllocator is implemented by allocators recording the origin of every buffer.
// The cache reports resource name as the file and the loading stage as the function.
type OriginAllocator interface {
	AllocateAt(size uint64, file, function string, line int) ([]byte, error)
}

// HeapAllocator allocates buffers on the go heap.
type HeapAllocator struct{}

// Allocate allocates buffer.
func (HeapAllocator) Allocate(size uint64) ([]byte, error) {
	return make([]byte, size), nil
}

// Free does nothing, buffer is collected by GC.
func (HeapAllocator) Free(_ []byte) error {
	return nil
}
