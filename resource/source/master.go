package source

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/forgecore/engine/resource"
)

const archiveExtension = ".zip"

// NewMaster creates source merging all the sources found in the directory.
func NewMaster(dir string, log *zap.Logger) *Master {
	if log == nil {
		log = zap.NewNop()
	}
	return &Master{
		dir: dir,
		log: log,
	}
}

// Master merges sources found in the directory. Every subdirectory becomes a Directory source and every
// zip archive becomes a Zip source. Sources are opened in lexical order of their names and when the same
// resource is provided by many of them, the last one wins.
type Master struct {
	dir string
	log *zap.Logger

	sources []resource.Source
	owners  map[string]resource.Source
	names   []string
}

// Open discovers and opens the sources.
func (s *Master) Open() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.log.Warn("Invalid directory path", zap.String("path", s.dir), zap.Error(err))
		return errors.Wrapf(err, "reading directory %q failed", s.dir)
	}

	s.sources = nil
	s.owners = map[string]resource.Source{}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}

		path := filepath.Join(s.dir, e.Name())
		var src resource.Source
		switch {
		case e.IsDir():
			src = NewDirectory(path, s.log.With(zap.String("source", e.Name())))
		case isArchive(e.Name()):
			src = NewZip(path, s.log.With(zap.String("source", e.Name())))
		default:
			continue
		}

		if err := src.Open(); err != nil {
			s.log.Warn("Skipping source", zap.String("source", e.Name()), zap.Error(err))
			continue
		}
		s.sources = append(s.sources, src)

		for _, name := range src.Names() {
			if _, exists := s.owners[name]; exists {
				s.log.Debug("Resource overridden", zap.String("resource", name), zap.String("source", e.Name()))
			}
			s.owners[name] = src
		}
	}

	s.names = lo.Keys(s.owners)
	sort.Strings(s.names)
	return nil
}

// Close closes the archives.
func (s *Master) Close() error {
	for _, src := range s.sources {
		if z, ok := src.(*Zip); ok {
			if err := z.Close(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Size returns the size of the resource.
func (s *Master) Size(name string) uint64 {
	src, exists := s.owners[name]
	if !exists {
		return 0
	}
	return src.Size(name)
}

// ReadInto reads the resource from the source owning it.
func (s *Master) ReadInto(name string, buf []byte) (uint64, error) {
	src, exists := s.owners[name]
	if !exists {
		return 0, nil
	}
	return src.ReadInto(name, buf)
}

// Count returns the number of resources.
func (s *Master) Count() int {
	return len(s.names)
}

// NameAt returns the name of i-th resource.
func (s *Master) NameAt(i int) string {
	return s.names[i]
}

// Names returns names of all the resources.
func (s *Master) Names() []string {
	return append([]string{}, s.names...)
}

// Sources returns the number of opened sources.
func (s *Master) Sources() int {
	return len(s.sources)
}

func isArchive(name string) bool {
	return cases.Fold().String(filepath.Ext(name)) == archiveExtension
}
