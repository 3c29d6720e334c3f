package source

import (
	"encoding/xml"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// ManifestFile is the name of the file listing resources excluded from directory source.
const ManifestFile = "manifest.xml"

type manifest struct {
	XMLName   xml.Name `xml:"Manifest"`
	Blacklist struct {
		Files []struct {
			Name string `xml:"name,attr"`
		} `xml:"File"`
	} `xml:"Blacklist"`
}

// NewDirectory creates source serving files stored in the directory tree.
func NewDirectory(dir string, log *zap.Logger) *Directory {
	if log == nil {
		log = zap.NewNop()
	}
	return &Directory{
		dir: dir,
		log: log,
	}
}

// Directory serves files of the directory tree. Names are slash-separated paths relative to the root.
// Hidden entries and files blacklisted by the manifest are skipped.
type Directory struct {
	dir string
	log *zap.Logger

	sizes map[string]uint64
	names []string
}

// Open scans the directory.
func (s *Directory) Open() error {
	blacklist, err := s.readBlacklist()
	if err != nil {
		return err
	}

	s.sizes = map[string]uint64{}
	err = filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == s.dir {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return errors.WithStack(err)
		}
		name := filepath.ToSlash(rel)
		if name == ManifestFile || blacklist[name] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return errors.WithStack(err)
		}
		s.sizes[name] = uint64(info.Size())
		return nil
	})
	if err != nil {
		s.log.Warn("Invalid directory path", zap.String("path", s.dir), zap.Error(err))
		return errors.Wrapf(err, "scanning directory %q failed", s.dir)
	}

	s.names = lo.Keys(s.sizes)
	sort.Strings(s.names)
	return nil
}

// Size returns size of the file.
func (s *Directory) Size(name string) uint64 {
	return s.sizes[name]
}

// ReadInto reads the file into the buffer.
func (s *Directory) ReadInto(name string, buf []byte) (uint64, error) {
	size, exists := s.sizes[name]
	if !exists {
		return 0, nil
	}

	f, err := os.Open(filepath.Join(s.dir, filepath.FromSlash(name)))
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer f.Close()

	n, err := io.ReadFull(f, buf[:size])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return uint64(n), errors.WithStack(err)
	}
	return uint64(n), nil
}

// Count returns the number of files.
func (s *Directory) Count() int {
	return len(s.names)
}

// NameAt returns the name of i-th file.
func (s *Directory) NameAt(i int) string {
	return s.names[i]
}

// Names returns names of all the files.
func (s *Directory) Names() []string {
	return append([]string{}, s.names...)
}

func (s *Directory) readBlacklist() (map[string]bool, error) {
	content, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("Manifest not found", zap.String("path", s.dir))
			return map[string]bool{}, nil
		}
		return nil, errors.WithStack(err)
	}

	var m manifest
	if err := xml.Unmarshal(content, &m); err != nil {
		s.log.Warn("Failed to open manifest", zap.String("path", s.dir), zap.Error(err))
		return nil, errors.Wrapf(err, "parsing manifest of %q failed", s.dir)
	}

	blacklist := map[string]bool{}
	for _, f := range m.Blacklist.Files {
		blacklist[strings.TrimPrefix(filepath.ToSlash(f.Name), "/")] = true
	}
	return blacklist, nil
}
