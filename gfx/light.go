package gfx

import (
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/outofforest/photon"
)

// Sizes of light block entries. Every vector takes 16 bytes, like vec3 in std140 uniform block.
const (
	LightHeaderSize  = 64
	PointLightStride = 64
	SpotLightStride  = 96
)

// ErrInvalidLight is returned when light index is out of range.
var ErrInvalidLight = errors.New("invalid light index")

// Vec3 is the 3-component vector.
type Vec3 [3]float32

// Normalize returns vector of length 1 pointing in the same direction. Zero vector is returned unchanged.
func (v Vec3) Normalize() Vec3 {
	length := float32(math.Sqrt(float64(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])))
	if length == 0 {
		return v
	}
	return Vec3{v[0] / length, v[1] / length, v[2] / length}
}

// Neg returns the opposite vector.
func (v Vec3) Neg() Vec3 {
	return Vec3{-v[0], -v[1], -v[2]}
}

// PointLight is the light emitted equally in all directions.
type PointLight struct {
	Enabled     bool
	Color       Vec3
	Location    Vec3
	Attenuation Vec3
}

// SpotLight is the light emitted in a cone.
type SpotLight struct {
	Enabled     bool
	Color       Vec3
	Location    Vec3
	Attenuation Vec3
	Direction   Vec3
	FullDot     float32
	MinDot      float32
}

// LightLayout describes placement of lights in the light block.
type LightLayout struct {
	PointLights int
	SpotLights  int

	PointOffset int
	SpotOffset  int
	Size        int
}

// NewLightLayout computes layout of light block holding the requested number of lights.
func NewLightLayout(pointLights, spotLights int) LightLayout {
	pointLights = max(pointLights, 0)
	spotLights = max(spotLights, 0)

	l := LightLayout{
		PointLights: pointLights,
		SpotLights:  spotLights,
		PointOffset: LightHeaderSize,
	}
	l.SpotOffset = l.PointOffset + pointLights*PointLightStride
	l.Size = l.SpotOffset + spotLights*SpotLightStride
	return l
}

// PointLightOffset returns offset of the point light.
func (l LightLayout) PointLightOffset(i int) int {
	return l.PointOffset + i*PointLightStride
}

// SpotLightOffset returns offset of the spot light.
func (l LightLayout) SpotLightOffset(i int) int {
	return l.SpotOffset + i*SpotLightStride
}

type lightHeaderBlock struct {
	EyeDirection    Vec3
	_               float32
	Ambient         Vec3
	_               float32
	SunColor        Vec3
	_               float32
	SunInvDirection Vec3
	_               float32
}

type pointLightBlock struct {
	Enabled     int32
	_           [3]int32
	Color       Vec3
	_           float32
	Location    Vec3
	_           float32
	Attenuation Vec3
	_           float32
}

type spotLightBlock struct {
	Enabled     int32
	_           [3]int32
	Color       Vec3
	_           float32
	Location    Vec3
	_           float32
	Attenuation Vec3
	_           float32
	Direction   Vec3
	_           float32
	FullDot     float32
	MinDot      float32
	_           [2]float32
}

type byteRange struct {
	start, end int
}

// lightBlock keeps the staging copy of the light block. Modified ranges are uploaded by sync.
type lightBlock struct {
	layout LightLayout
	data   []byte
	dirty  []byteRange

	header      lightHeaderBlock
	pointLights []PointLight
	spotLights  []SpotLight
}

func newLightBlock(layout LightLayout) *lightBlock {
	b := &lightBlock{
		layout:      layout,
		data:        make([]byte, layout.Size),
		pointLights: make([]PointLight, layout.PointLights),
		spotLights:  make([]SpotLight, layout.SpotLights),
		header: lightHeaderBlock{
			EyeDirection: Vec3{0, 1, 0},
			Ambient:      Vec3{0.2, 0.2, 0.2},
		},
	}
	*photon.FromBytes[lightHeaderBlock](b.data[:LightHeaderSize]) = b.header
	b.markDirty(0, layout.Size)
	return b
}

func (b *lightBlock) markDirty(start, end int) {
	b.dirty = append(b.dirty, byteRange{start: start, end: end})
}

func (b *lightBlock) writeHeader() {
	*photon.FromBytes[lightHeaderBlock](b.data[:LightHeaderSize]) = b.header
	b.markDirty(0, LightHeaderSize)
}

func (b *lightBlock) writePointLight(i int) {
	l := b.pointLights[i]
	offset := b.layout.PointLightOffset(i)
	*photon.FromBytes[pointLightBlock](b.data[offset : offset+PointLightStride]) = pointLightBlock{
		Enabled:     boolToInt(l.Enabled),
		Color:       l.Color,
		Location:    l.Location,
		Attenuation: l.Attenuation,
	}
	b.markDirty(offset, offset+PointLightStride)
}

func (b *lightBlock) writeSpotLight(i int) {
	l := b.spotLights[i]
	offset := b.layout.SpotLightOffset(i)
	*photon.FromBytes[spotLightBlock](b.data[offset : offset+SpotLightStride]) = spotLightBlock{
		Enabled:     boolToInt(l.Enabled),
		Color:       l.Color,
		Location:    l.Location,
		Attenuation: l.Attenuation,
		Direction:   l.Direction,
		FullDot:     l.FullDot,
		MinDot:      l.MinDot,
	}
	b.markDirty(offset, offset+SpotLightStride)
}

// ranges returns dirty ranges merged into minimal set of disjoint ones.
func (b *lightBlock) ranges() []byteRange {
	if len(b.dirty) == 0 {
		return nil
	}

	sort.Slice(b.dirty, func(i, j int) bool {
		return b.dirty[i].start < b.dirty[j].start
	})
	merged := []byteRange{b.dirty[0]}
	for _, r := range b.dirty[1:] {
		last := &merged[len(merged)-1]
		if r.start <= last.end {
			last.end = max(last.end, r.end)
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

func (b *lightBlock) sync(backend Backend) error {
	ranges := b.ranges()
	for i, r := range ranges {
		if r.start == r.end {
			continue
		}
		if err := backend.UploadLightBlock(r.start, b.data[r.start:r.end]); err != nil {
			b.dirty = append(b.dirty[:0], ranges[i:]...)
			return errors.Wrapf(err, "uploading light block range %d-%d failed", r.start, r.end)
		}
	}
	b.dirty = b.dirty[:0]
	return nil
}

func boolToInt(v bool) int32 {
	if v {
		return 1
	}
	return 0
}

// LightLayout returns layout of the light block.
func (c *Context) LightLayout() LightLayout {
	return c.e().lights.layout
}

// SetAmbientLight sets color of the ambient light.
func (c *Context) SetAmbientLight(color Vec3) {
	b := c.e().lights
	b.header.Ambient = color
	b.writeHeader()
}

// AmbientLight returns color of the ambient light.
func (c *Context) AmbientLight() Vec3 {
	return c.e().lights.header.Ambient
}

// SetSunlight sets color and direction of the sun.
func (c *Context) SetSunlight(color, direction Vec3) {
	b := c.e().lights
	b.header.SunColor = color
	b.header.SunInvDirection = direction.Normalize().Neg()
	b.writeHeader()
}

// SetPointLight sets the point light.
func (c *Context) SetPointLight(i int, light PointLight) error {
	b := c.e().lights
	if i < 0 || i >= len(b.pointLights) {
		return errors.Wrapf(ErrInvalidLight, "point light %d of %d", i, len(b.pointLights))
	}
	b.pointLights[i] = light
	b.writePointLight(i)
	return nil
}

// PointLight returns the point light.
func (c *Context) PointLight(i int) (PointLight, error) {
	b := c.e().lights
	if i < 0 || i >= len(b.pointLights) {
		return PointLight{}, errors.Wrapf(ErrInvalidLight, "point light %d of %d", i, len(b.pointLights))
	}
	return b.pointLights[i], nil
}

// EnablePointLight turns the point light on or off.
func (c *Context) EnablePointLight(i int, enabled bool) error {
	light, err := c.PointLight(i)
	if err != nil {
		return err
	}
	light.Enabled = enabled
	return c.SetPointLight(i, light)
}

// SetSpotLight sets the spot light.
func (c *Context) SetSpotLight(i int, light SpotLight) error {
	b := c.e().lights
	if i < 0 || i >= len(b.spotLights) {
		return errors.Wrapf(ErrInvalidLight, "spot light %d of %d", i, len(b.spotLights))
	}
	light.Direction = light.Direction.Normalize()
	b.spotLights[i] = light
	b.writeSpotLight(i)
	return nil
}

// SpotLight returns the spot light.
func (c *Context) SpotLight(i int) (SpotLight, error) {
	b := c.e().lights
	if i < 0 || i >= len(b.spotLights) {
		return SpotLight{}, errors.Wrapf(ErrInvalidLight, "spot light %d of %d", i, len(b.spotLights))
	}
	return b.spotLights[i], nil
}

// EnableSpotLight turns the spot light on or off.
func (c *Context) EnableSpotLight(i int, enabled bool) error {
	light, err := c.SpotLight(i)
	if err != nil {
		return err
	}
	light.Enabled = enabled
	return c.SetSpotLight(i, light)
}
