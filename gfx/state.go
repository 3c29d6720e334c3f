package gfx

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type change struct {
	parameter Parameter
	previous  Value
}

// PushState opens new frame collecting parameter changes to be reverted by PopState.
func (c *Context) PushState() {
	e := c.e()
	e.frames = append(e.frames, nil)
}

// PopState reverts parameters changed since the matching PushState, the most recent change first.
func (c *Context) PopState() error {
	e := c.e()
	if len(e.frames) == 0 {
		return errors.WithStack(ErrEmptyStateStack)
	}

	frame := e.frames[len(e.frames)-1]
	e.frames = e.frames[:len(e.frames)-1]

	var firstErr error
	for i := len(frame) - 1; i >= 0; i-- {
		if err := e.apply(frame[i].parameter, frame[i].previous); err != nil {
			e.log.Warn("Restoring parameter failed", zap.Stringer("parameter", frame[i].parameter), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// StateDepth returns the number of open frames.
func (c *Context) StateDepth() int {
	return len(c.e().frames)
}

// SetParameter sets the pipeline parameter. Change is recorded in the current frame, if there is one.
func (c *Context) SetParameter(p Parameter, v Value) error {
	return c.e().setParameter(p, v)
}

// Parameter returns current value of the parameter.
func (c *Context) Parameter(p Parameter) (Value, bool) {
	v, exists := c.e().parameters[p]
	return v, exists
}

// UseProgram selects shader program.
func (c *Context) UseProgram(program int32) error {
	return c.SetParameter(ShaderProgram, Int(program))
}

func (e *Engine) setParameter(p Parameter, v Value) error {
	if err := p.Validate(v); err != nil {
		return err
	}

	current, tracked := e.parameters[p]
	if tracked && current.Equal(v) {
		return nil
	}
	if err := e.apply(p, v); err != nil {
		return err
	}
	if tracked && len(e.frames) > 0 {
		top := len(e.frames) - 1
		e.frames[top] = append(e.frames[top], change{parameter: p, previous: current})
	}
	return nil
}

func (e *Engine) apply(p Parameter, v Value) error {
	if err := e.config.Backend.SetParameter(p, v); err != nil {
		return errors.Wrapf(err, "setting parameter %s to %s failed", p, v)
	}
	e.parameters[p] = v
	return nil
}
