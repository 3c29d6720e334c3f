package gfx

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	"github.com/forgecore/engine/resource"
	"github.com/forgecore/engine/resource/source"
)

func encode(t *testing.T, width, height int, c color.Color, encoder func(*bytes.Buffer, image.Image) error) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.Set(x, y, c)
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, encoder(buf, img))
	return buf.Bytes()
}

func encodePNG(buf *bytes.Buffer, img image.Image) error {
	return png.Encode(buf, img)
}

func encodeBMP(buf *bytes.Buffer, img image.Image) error {
	return bmp.Encode(buf, img)
}

func newImageCache(t *testing.T, resources map[string][]byte) *resource.Cache {
	src := source.NewMemory(resources)
	require.NoError(t, src.Open())
	return resource.New(resource.Config{
		BudgetBytes: 1 << 20,
		Source:      src,
	})
}

func TestLoadImage(t *testing.T) {
	requireT := require.New(t)

	red := color.NRGBA{R: 0xff, A: 0xff}
	blue := color.NRGBA{B: 0xff, A: 0xff}
	cache := newImageCache(t, map[string][]byte{
		"red.png":    encode(t, 2, 2, red, encodePNG),
		"blue.bmp":   encode(t, 2, 2, blue, encodeBMP),
		"big.png":    encode(t, 4, 4, red, encodePNG),
		"broken.png": []byte("not an image"),
	})

	e, c, recorder := newContext(t)

	r, err := c.LoadImage(cache, "red.png")
	requireT.NoError(err)
	requireT.NotNil(r)
	requireT.Equal(0, r.Index())

	r2, err := c.LoadImage(cache, "red.png")
	requireT.NoError(err)
	requireT.Same(r, r2)

	b, err := c.LoadImage(cache, "blue.bmp")
	requireT.NoError(err)
	requireT.Equal(1, b.Index())

	big, err := c.LoadImage(cache, "big.png")
	requireT.NoError(err)
	requireT.Nil(big)

	missing, err := c.LoadImage(cache, "missing.png")
	requireT.NoError(err)
	requireT.Nil(missing)

	_, err = c.LoadImage(cache, "broken.png")
	requireT.Error(err)

	requireT.Equal(2, e.TextureCount())

	requireT.NoError(c.BindTextureArray())
	calls := recorder.Calls()
	upload := calls[len(calls)-1]
	requireT.Equal(OpUploadTextureArray, upload.Op)
	requireT.Equal(
		append(bytes.Repeat([]byte{0xff, 0, 0, 0xff}, 4), bytes.Repeat([]byte{0, 0, 0xff, 0xff}, 4)...),
		upload.Data,
	)
}

func TestDecodeRGBAWithOffsetBounds(t *testing.T) {
	requireT := require.New(t)

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	img.Set(2, 2, color.NRGBA{G: 0xff, A: 0xff})
	sub := img.SubImage(image.Rect(2, 2, 4, 4))

	buf := &bytes.Buffer{}
	requireT.NoError(png.Encode(buf, sub))

	rgba, err := DecodeRGBA(buf.Bytes())
	requireT.NoError(err)
	requireT.Equal(image.Rect(0, 0, 2, 2), rgba.Bounds())
	requireT.Equal(color.RGBA{G: 0xff, A: 0xff}, rgba.RGBAAt(0, 0))
	requireT.Len(rgba.Pix, 2*2*bytesPerPixel)
}

func TestScaleRGBA(t *testing.T) {
	requireT := require.New(t)

	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0x80
	}

	dst := ScaleRGBA(src, 2, 2)
	requireT.Equal(image.Rect(0, 0, 2, 2), dst.Bounds())
	for _, v := range dst.Pix {
		requireT.InDelta(0x80, v, 1)
	}
}
