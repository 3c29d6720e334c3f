package gfx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func pixels(width, height int, b byte) []byte {
	return bytes.Repeat([]byte{b}, width*height*bytesPerPixel)
}

func TestFreedSlotIsReused(t *testing.T) {
	requireT := require.New(t)

	e, c, _ := newContext(t)

	x := c.LoadTexture("X", 2, 2, pixels(2, 2, 'x'))
	requireT.NotNil(x)
	requireT.Equal(0, x.Index())
	requireT.Equal("X", x.Name())

	x.Release()
	requireT.Equal([]int{0}, e.FreeSlots())

	y := c.LoadTexture("Y", 2, 2, pixels(2, 2, 'y'))
	requireT.NotNil(y)
	requireT.Equal(0, y.Index())
	requireT.Equal(1, e.TextureCount())
	requireT.Empty(e.FreeSlots())
	y.Release()
}

func TestFreeSlotsAreReusedInOrder(t *testing.T) {
	requireT := require.New(t)

	e, c, _ := newContext(t)

	textures := []*Texture{}
	for _, name := range []string{"a", "b", "c", "d"} {
		tx := c.LoadTexture(name, 1, 1, pixels(1, 1, name[0]))
		requireT.NotNil(tx)
		textures = append(textures, tx)
	}
	requireT.Equal(4, e.TextureCount())

	textures[2].Release()
	textures[0].Release()
	requireT.Equal([]int{2, 0}, e.FreeSlots())

	requireT.Equal(2, c.LoadTexture("e", 1, 1, pixels(1, 1, 'e')).Index())
	requireT.Equal(0, c.LoadTexture("f", 1, 1, pixels(1, 1, 'f')).Index())
	requireT.Equal(4, c.LoadTexture("g", 1, 1, pixels(1, 1, 'g')).Index())
	requireT.Equal(5, e.TextureCount())
}

func TestLiveTextureIsShared(t *testing.T) {
	requireT := require.New(t)

	e, c, _ := newContext(t)

	a := c.LoadTexture("a", 1, 1, pixels(1, 1, 'a'))
	a2 := c.LoadTexture("a", 1, 1, pixels(1, 1, 'z'))
	requireT.Same(a, a2)
	requireT.Same(a, c.Texture("a"))
	requireT.Equal(1, e.TextureCount())

	a.Release()
	a2.Release()
	requireT.Empty(e.FreeSlots())

	a.Release()
	requireT.Equal([]int{0}, e.FreeSlots())
	requireT.Nil(c.Texture("a"))

	requireT.Panics(func() {
		a.Release()
	})
}

func TestRetainKeepsSlot(t *testing.T) {
	requireT := require.New(t)

	e, c, _ := newContext(t)

	a := c.LoadTexture("a", 1, 1, pixels(1, 1, 'a'))
	requireT.Same(a, a.Retain())
	a.Release()
	requireT.Empty(e.FreeSlots())
	a.Release()
	requireT.Equal([]int{0}, e.FreeSlots())

	requireT.Panics(func() {
		a.Retain()
	})
}

func TestDimensionMismatchIsRejected(t *testing.T) {
	requireT := require.New(t)

	e, c, recorder := newContext(t)

	a := c.LoadTexture("a", 2, 2, pixels(2, 2, 'a'))
	requireT.NotNil(a)
	a.Release()

	requireT.Nil(c.LoadTexture("b", 4, 4, pixels(4, 4, 'b')))
	requireT.Nil(c.LoadTexture("c", 2, 2, pixels(1, 1, 'c')))
	requireT.Nil(c.LoadTexture("d", 0, 2, nil))

	requireT.Equal(1, e.TextureCount())
	requireT.Equal([]int{0}, e.FreeSlots())
	requireT.Nil(c.Texture("b"))

	requireT.NoError(c.BindTextureArray())
	calls := recorder.Calls()
	upload := calls[len(calls)-1]
	requireT.Equal(OpUploadTextureArray, upload.Op)
	requireT.Equal(2, upload.Width)
	requireT.Equal(2, upload.Height)
	requireT.Equal(1, upload.Layers)
	requireT.Equal(pixels(2, 2, 'a'), upload.Data)
}

func TestBindTextureArray(t *testing.T) {
	requireT := require.New(t)

	e, c, recorder := newContext(t)

	// Nothing is uploaded for empty array.
	requireT.NoError(c.BindTextureArray())
	for _, call := range recorder.Calls() {
		requireT.NotEqual(OpUploadTextureArray, call.Op)
	}

	a := c.LoadTexture("a", 1, 2, pixels(1, 2, 'a'))
	b := c.LoadTexture("b", 1, 2, pixels(1, 2, 'b'))
	a.Release()
	c2 := c.LoadTexture("c", 1, 2, pixels(1, 2, 'c'))
	requireT.Equal(0, c2.Index())

	e.SetViewport(10, 20)
	requireT.NoError(c.BindTextureArray())

	calls := recorder.Calls()
	requireT.Equal(Call{Op: OpViewport, Width: 10, Height: 20}, calls[0])
	upload := calls[len(calls)-1]
	requireT.Equal(OpUploadTextureArray, upload.Op)
	requireT.Equal(2, upload.Layers)
	requireT.Equal(append(pixels(1, 2, 'c'), pixels(1, 2, 'b')...), upload.Data)

	b.Release()
	c2.Release()
}
