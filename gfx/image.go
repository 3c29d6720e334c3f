package gfx

import (
	"bytes"
	"image"
	_ "image/gif"  // registers gif decoder
	_ "image/jpeg" // registers jpeg decoder
	_ "image/png"  // registers png decoder

	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "golang.org/x/image/bmp" // registers bmp decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // registers tiff decoder
	_ "golang.org/x/image/webp" // registers webp decoder

	"github.com/forgecore/engine/resource"
)

// LoadImage decodes image resource and stores it in the texture array.
// Nil texture is returned if resource doesn't exist or its dimensions don't match the array.
func (c *Context) LoadImage(cache *resource.Cache, name string) (*Texture, error) {
	e := c.e()
	if t := e.textures.lookup(name); t != nil {
		return t, nil
	}

	h, err := cache.Handle(name)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	if h.Size() == 0 {
		e.log.Warn("Image not found", zap.String("image", name))
		return nil, nil
	}

	rgba, err := DecodeRGBA(h.Bytes())
	if err != nil {
		return nil, errors.Wrapf(err, "decoding image %q failed", name)
	}

	bounds := rgba.Bounds()
	return c.LoadTexture(name, bounds.Dx(), bounds.Dy(), rgba.Pix), nil
}

// DecodeRGBA decodes image and converts it to tightly packed RGBA.
func DecodeRGBA(data []byte) (*image.RGBA, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if rgba, ok := img.(*image.RGBA); ok && rgba.Stride == rgba.Rect.Dx()*bytesPerPixel &&
		rgba.Rect.Min == (image.Point{}) {
		return rgba, nil
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba, nil
}

// ScaleRGBA resizes image to the requested dimensions, e.g. to fit it into the texture array.
func ScaleRGBA(src image.Image, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
