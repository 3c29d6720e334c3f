package gfx

import (
	"sync"
)

// Operation is the type of call recorded by Recorder.
type Operation string

// Operations.
const (
	OpSetParameter       Operation = "setParameter"
	OpViewport           Operation = "viewport"
	OpUploadTextureArray Operation = "uploadTextureArray"
	OpUploadLightBlock   Operation = "uploadLightBlock"
)

// Call is the call received by Recorder.
type Call struct {
	Op        Operation
	Parameter Parameter
	Value     Value
	Width     int
	Height    int
	Layers    int
	Offset    int
	Data      []byte
}

// NewRecorder creates headless backend recording all the calls.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Recorder is the headless backend. It remembers received calls and fails the ones it was asked to fail.
type Recorder struct {
	mu    sync.Mutex
	calls []Call
	fail  map[Operation]error
}

// SetParameter records parameter change.
func (r *Recorder) SetParameter(p Parameter, v Value) error {
	return r.record(Call{Op: OpSetParameter, Parameter: p, Value: v})
}

// Viewport records viewport change.
func (r *Recorder) Viewport(width, height int) error {
	return r.record(Call{Op: OpViewport, Width: width, Height: height})
}

// UploadTextureArray records texture upload.
func (r *Recorder) UploadTextureArray(image TextureArrayImage) error {
	return r.record(Call{
		Op:     OpUploadTextureArray,
		Width:  image.Width,
		Height: image.Height,
		Layers: image.Layers,
		Data:   append([]byte{}, image.Data...),
	})
}

// UploadLightBlock records light block upload.
func (r *Recorder) UploadLightBlock(offset int, data []byte) error {
	return r.record(Call{Op: OpUploadLightBlock, Offset: offset, Data: append([]byte{}, data...)})
}

// Fail makes all subsequent calls of the operation return the error. Nil error clears the failure.
func (r *Recorder) Fail(op Operation, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.fail == nil {
		r.fail = map[Operation]error{}
	}
	if err == nil {
		delete(r.fail, op)
		return
	}
	r.fail[op] = err
}

// Calls returns recorded calls and forgets them.
func (r *Recorder) Calls() []Call {
	r.mu.Lock()
	defer r.mu.Unlock()

	calls := r.calls
	r.calls = nil
	return calls
}

func (r *Recorder) record(call Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fail[call.Op]; err != nil {
		return err
	}
	r.calls = append(r.calls, call)
	return nil
}
