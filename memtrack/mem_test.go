package memtrack

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMmap(t *testing.T) {
	const size = 1000

	requireT := require.New(t)

	data, err := mmap(size)
	requireT.NoError(err)
	requireT.Len(data, size)
	requireT.NotZero(address(data))

	for i := range size {
		data[i] = byte(i)
	}
	for i := range size {
		requireT.Equal(byte(i), data[i])
	}

	requireT.NoError(munmap(data))
}

func TestAddressOfEmptySlice(t *testing.T) {
	require.Zero(t, address(nil))
	require.Zero(t, address([]byte{}))
}
