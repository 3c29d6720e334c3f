package gfx

// TextureArrayImage is the content of texture array uploaded to the pipeline.
// Layers are stored one after another, every one taking Width*Height*4 bytes of RGBA data.
type TextureArrayImage struct {
	Width  int
	Height int
	Layers int
	Data   []byte
}

// Backend applies state to the graphics pipeline.
type Backend interface {
	SetParameter(p Parameter, v Value) error
	Viewport(width, height int) error
	UploadTextureArray(image TextureArrayImage) error
	UploadLightBlock(offset int, data []byte) error
}
