package resource

import (
	"regexp"
)

// Processor transforms resources right after they are loaded.
// Processors are tried in registration order and only the first matching one is applied.
type Processor interface {
	Match(h *Handle) bool
	Process(h *Handle) error
}

var textPattern = regexp.MustCompile(`^.+\.(vert|frag|txt)$`)

// StringProcessor appends terminating zero byte to text resources, so they can be passed to APIs expecting
// C strings, e.g. shader compilers.
type StringProcessor struct{}

// Match tells if resource is a text one.
func (StringProcessor) Match(h *Handle) bool {
	return textPattern.MatchString(h.Name())
}

// Process appends zero byte to the resource.
func (StringProcessor) Process(h *Handle) error {
	data, err := h.Replace(h.Size() + 1)
	if err != nil {
		return err
	}
	data[len(data)-1] = 0
	return nil
}

// Text returns content of text resource without the terminating zero byte.
func Text(h *Handle) string {
	data := h.Bytes()
	if len(data) > 0 && data[len(data)-1] == 0 {
		data = data[:len(data)-1]
	}
	return string(data)
}
