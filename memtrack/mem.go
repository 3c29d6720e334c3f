package memtrack

import (
	"unsafe"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// mmap returns anonymous mapping. Its address stays valid and unique until munmap is called,
// so it can be used as the key of allocation record.
func mmap(size uint64) ([]byte, error) {
	data, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, errors.Wrapf(err, "memory allocation of %d bytes failed", size)
	}
	return data, nil
}

func munmap(data []byte) error {
	return errors.WithStack(unix.Munmap(data[:cap(data)]))
}

func address(data []byte) uintptr {
	if cap(data) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(data)))
}
