package resource_test

import (
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/forgecore/engine/resource"
)

type upperProcessor struct {
	suffix  string
	applied []string
}

func (p *upperProcessor) Match(h *resource.Handle) bool {
	return strings.HasSuffix(h.Name(), p.suffix)
}

func (p *upperProcessor) Process(h *resource.Handle) error {
	p.applied = append(p.applied, h.Name())
	data := h.Bytes()
	copy(data, strings.ToUpper(string(data)))
	return nil
}

type failingProcessor struct{}

func (failingProcessor) Match(*resource.Handle) bool {
	return true
}

func (failingProcessor) Process(*resource.Handle) error {
	return errors.New("processing failed")
}

func TestStringProcessor(t *testing.T) {
	requireT := require.New(t)

	c, allocator := newCache(t, 100, map[string][]byte{
		"basic.vert": []byte("void main() {}"),
		"readme.txt": []byte("read me"),
		"image.png":  []byte("png"),
		".txt":       []byte("no name"),
	})
	c.RegisterProcessor(resource.StringProcessor{})

	h, err := c.Handle("basic.vert")
	requireT.NoError(err)
	requireT.Equal(append([]byte("void main() {}"), 0), h.Bytes())
	requireT.EqualValues(15, h.Size())
	requireT.Equal("void main() {}", resource.Text(h))
	requireT.EqualValues(15, c.UsedBytes())
	requireT.Equal(1, allocator.Live())
	h.Release()

	h, err = c.Handle("image.png")
	requireT.NoError(err)
	requireT.Equal([]byte("png"), h.Bytes())
	h.Release()

	h, err = c.Handle(".txt")
	requireT.NoError(err)
	requireT.Equal([]byte("no name"), h.Bytes())
	h.Release()

	requireT.EqualValues(25, c.UsedBytes())
}

func TestFirstMatchingProcessorWins(t *testing.T) {
	requireT := require.New(t)

	c, _ := newCache(t, 100, map[string][]byte{
		"a.txt": []byte("abc"),
		"b.dat": []byte("def"),
	})
	first := &upperProcessor{suffix: ".txt"}
	second := &upperProcessor{suffix: ""}
	c.RegisterProcessor(first)
	c.RegisterProcessor(second)

	load(t, c, "a.txt")
	load(t, c, "b.dat")
	load(t, c, "a.txt")

	requireT.Equal([]string{"a.txt"}, first.applied)
	requireT.Equal([]string{"b.dat"}, second.applied)

	h, err := c.Handle("b.dat")
	requireT.NoError(err)
	requireT.Equal([]byte("DEF"), h.Bytes())
	h.Release()
}

func TestProcessorFailureKeepsResource(t *testing.T) {
	requireT := require.New(t)

	c, _ := newCache(t, 100, map[string][]byte{
		"a.txt": []byte("abc"),
	})
	c.RegisterProcessor(failingProcessor{})
	c.RegisterProcessor(resource.StringProcessor{})

	h, err := c.Handle("a.txt")
	requireT.NoError(err)
	requireT.Equal([]byte("abc"), h.Bytes())
	h.Release()
}

func TestReplaceOutsideProcessorFails(t *testing.T) {
	requireT := require.New(t)

	c, _ := newCache(t, 100, map[string][]byte{
		"a.txt": []byte("abc"),
	})

	h, err := c.Handle("a.txt")
	requireT.NoError(err)
	_, err = h.Replace(10)
	requireT.Error(err)
	requireT.EqualValues(3, c.UsedBytes())
	h.Release()
}
