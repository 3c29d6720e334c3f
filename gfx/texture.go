package gfx

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/outofforest/mass"
)

const bytesPerPixel = 4

// Texture is the layer of texture array. Texture is reference counted, when the last reference is released
// its layer becomes available for the next loaded texture.
type Texture struct {
	array *textureArray
	name  string
	index int
	refs  atomic.Int64
}

// Name returns the name of the texture.
func (t *Texture) Name() string {
	return t.name
}

// Index returns the layer of the texture array holding the texture.
func (t *Texture) Index() int {
	return t.index
}

// Retain adds new reference to the texture.
func (t *Texture) Retain() *Texture {
	if t.refs.Add(1) <= 1 {
		panic(errors.Errorf("retaining released texture %q", t.name))
	}
	return t
}

// Release drops the reference to the texture.
func (t *Texture) Release() {
	refs := t.refs.Add(-1)
	switch {
	case refs < 0:
		panic(errors.Errorf("texture %q released too many times", t.name))
	case refs == 0:
		t.array.release(t)
	}
}

func (t *Texture) tryRetain() bool {
	for {
		refs := t.refs.Load()
		if refs <= 0 {
			return false
		}
		if t.refs.CompareAndSwap(refs, refs+1) {
			return true
		}
	}
}

// textureArray stores equally sized RGBA images as layers of single array.
// Dimensions are fixed by the first loaded texture.
type textureArray struct {
	log      *zap.Logger
	textures *mass.Mass[Texture]

	mu            sync.Mutex
	width, height int
	layers        int
	data          []byte
	free          ring
	byName        map[string]*Texture
}

// LoadTexture stores RGBA image in the texture array.
// If texture of the same name is alive, it is returned instead. Nil is returned if dimensions of the image
// don't match the ones of the array.
func (c *Context) LoadTexture(name string, width, height int, rgba []byte) *Texture {
	return c.e().textures.load(name, width, height, rgba)
}

// Texture returns live texture of the name. Caller must release it.
func (c *Context) Texture(name string) *Texture {
	return c.e().textures.lookup(name)
}

// BindTextureArray uploads the texture array to the pipeline.
func (c *Context) BindTextureArray() error {
	if err := c.Sync(); err != nil {
		return err
	}

	e := c.e()
	image, ok := e.textures.image()
	if !ok {
		e.log.Debug("Texture array is empty")
		return nil
	}
	if err := e.config.Backend.UploadTextureArray(image); err != nil {
		return errors.Wrap(err, "uploading texture array failed")
	}
	e.log.Debug("Texture array uploaded", zap.Int("layers", image.Layers), zap.Int("size", len(image.Data)))
	return nil
}

func (a *textureArray) lookup(name string) *Texture {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, exists := a.byName[name]; exists && t.tryRetain() {
		return t
	}
	return nil
}

func (a *textureArray) load(name string, width, height int, rgba []byte) *Texture {
	a.mu.Lock()
	defer a.mu.Unlock()

	if t, exists := a.byName[name]; exists && t.tryRetain() {
		return t
	}

	if width <= 0 || height <= 0 {
		a.log.Warn("Invalid texture dimensions", zap.String("texture", name), zap.Int("width", width),
			zap.Int("height", height))
		return nil
	}
	if a.layers > 0 && (width != a.width || height != a.height) {
		a.log.Warn("Texture dimensions don't match texture array",
			zap.String("texture", name),
			zap.Int("width", width),
			zap.Int("height", height),
			zap.Int("arrayWidth", a.width),
			zap.Int("arrayHeight", a.height))
		return nil
	}

	layerSize := width * height * bytesPerPixel
	if len(rgba) != layerSize {
		a.log.Warn("Invalid size of texture data", zap.String("texture", name), zap.Int("expected", layerSize),
			zap.Int("size", len(rgba)))
		return nil
	}

	index, reused := a.free.Pop()
	if reused {
		copy(a.data[index*layerSize:(index+1)*layerSize], rgba)
	} else {
		if a.layers == 0 {
			a.width = width
			a.height = height
		}
		index = a.layers
		a.data = append(a.data, rgba...)
		a.layers++
	}

	t := a.textures.New()
	t.array = a
	t.name = name
	t.index = index
	t.refs.Store(1)
	a.byName[name] = t

	return t
}

func (a *textureArray) release(t *Texture) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.byName[t.name] == t {
		delete(a.byName, t.name)
	}
	a.free.Push(t.index)
}

func (a *textureArray) image() (TextureArrayImage, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.layers == 0 {
		return TextureArrayImage{}, false
	}
	return TextureArrayImage{
		Width:  a.width,
		Height: a.height,
		Layers: a.layers,
		Data:   a.data,
	}, true
}

// Layers returns the number of layers.
func (a *textureArray) Layers() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.layers
}

// FreeSlots returns free layers in reuse order.
func (a *textureArray) FreeSlots() []int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.free.Items()
}
