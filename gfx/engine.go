package gfx

import (
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/outofforest/mass"
)

const texturesPerBatch = 32

var (
	// ErrAlreadyClaimed is returned when render context is claimed while another claim is alive.
	ErrAlreadyClaimed = errors.New("render context is already claimed")

	// ErrEmptyStateStack is returned when state is popped without matching push.
	ErrEmptyStateStack = errors.New("render state stack is empty")

	// ErrInvalidParameter is returned when parameter is set to value it does not accept.
	ErrInvalidParameter = errors.New("invalid render parameter")
)

// Config stores configuration of the engine.
type Config struct {
	Backend Backend
	Logger  *zap.Logger

	// PointLights is the number of point lights in the light block.
	PointLights int

	// SpotLights is the number of spot lights in the light block.
	SpotLights int
}

// NewEngine creates new graphics engine.
func NewEngine(config Config) *Engine {
	if config.Backend == nil {
		config.Backend = NewRecorder()
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return &Engine{
		config:     config,
		log:        config.Logger,
		parameters: map[Parameter]Value{},
		textures: &textureArray{
			log:      config.Logger,
			textures: mass.New[Texture](texturesPerBatch),
			byName:   map[string]*Texture{},
		},
		lights: newLightBlock(NewLightLayout(config.PointLights, config.SpotLights)),
	}
}

// Engine owns the render state of the graphics pipeline.
//
// All the operations changing pipeline state require the render context claimed by Claim.
// Only one claim may be alive at a time. Viewport may be changed without claim, it is applied on next sync.
type Engine struct {
	config  Config
	log     *zap.Logger
	claimed atomic.Bool

	mu       sync.Mutex
	viewport viewport

	initialized bool
	parameters  map[Parameter]Value
	frames      [][]change

	textures *textureArray
	lights   *lightBlock
}

type viewport struct {
	pending       bool
	width, height int
	applied       [2]int
}

// Claim claims the render context.
func (e *Engine) Claim() (*Context, error) {
	if !e.claimed.CompareAndSwap(false, true) {
		return nil, errors.WithStack(ErrAlreadyClaimed)
	}

	if !e.initialized {
		e.initialized = true
		for _, d := range defaults {
			if err := e.setParameter(d.Parameter, d.Value); err != nil {
				e.log.Warn("Setting default parameter failed", zap.Stringer("parameter", d.Parameter),
					zap.Error(err))
			}
		}
	}

	return &Context{engine: e}, nil
}

// Claimed tells if render context is claimed.
func (e *Engine) Claimed() bool {
	return e.claimed.Load()
}

// SetViewport requests viewport change. It may be called without the claim.
// The change is applied by the next Context.Sync.
func (e *Engine) SetViewport(width, height int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.viewport.pending = true
	e.viewport.width = width
	e.viewport.height = height
}

// ViewportPending tells if viewport change waits to be applied.
func (e *Engine) ViewportPending() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.viewport.pending
}

// TextureCount returns the number of layers in the texture array.
func (e *Engine) TextureCount() int {
	return e.textures.Layers()
}

// FreeSlots returns indices of layers waiting for reuse, in reuse order.
func (e *Engine) FreeSlots() []int {
	return e.textures.FreeSlots()
}

// LightLayout returns layout of the light block.
func (e *Engine) LightLayout() LightLayout {
	return e.lights.layout
}

func (e *Engine) syncViewport() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.viewport.pending {
		return nil
	}
	if err := e.config.Backend.Viewport(e.viewport.width, e.viewport.height); err != nil {
		return errors.Wrapf(err, "updating viewport to %dx%d failed", e.viewport.width, e.viewport.height)
	}
	e.viewport.pending = false
	e.viewport.applied = [2]int{e.viewport.width, e.viewport.height}
	return nil
}

// Context is the proof of the claim on render context. It must not be used after Relinquish.
type Context struct {
	engine       *Engine
	relinquished bool
}

// Relinquish releases the claim.
func (c *Context) Relinquish() {
	e := c.e()
	c.relinquished = true
	e.claimed.Store(false)
}

// Sync applies pending viewport change and uploads modified parts of the light block.
func (c *Context) Sync() error {
	e := c.e()
	if err := e.syncViewport(); err != nil {
		return err
	}
	return e.lights.sync(e.config.Backend)
}

// Viewport returns dimensions of the viewport applied by the last sync.
func (c *Context) Viewport() (int, int) {
	e := c.e()

	e.mu.Lock()
	defer e.mu.Unlock()

	return e.viewport.applied[0], e.viewport.applied[1]
}

// ScreenRatio returns height to width ratio of the applied viewport.
func (c *Context) ScreenRatio() float32 {
	width, height := c.Viewport()
	if width == 0 {
		return 1
	}
	return float32(height) / float32(width)
}

func (c *Context) e() *Engine {
	if c.relinquished {
		panic(errors.New("render context used after it was relinquished"))
	}
	return c.engine
}
