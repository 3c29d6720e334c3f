package source

import (
	"archive/zip"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

// NewZip creates source serving entries of zip archive.
func NewZip(path string, log *zap.Logger) *Zip {
	if log == nil {
		log = zap.NewNop()
	}
	return &Zip{
		path: path,
		log:  log,
	}
}

// Zip serves files stored in zip archive.
type Zip struct {
	path string
	log  *zap.Logger

	mu      sync.Mutex
	archive *zip.ReadCloser
	files   map[string]*zip.File
	names   []string
}

// Open opens the archive and indexes its entries.
func (s *Zip) Open() error {
	archive, err := zip.OpenReader(s.path)
	if err != nil {
		s.log.Warn("Failed to open archive", zap.String("path", s.path), zap.Error(err))
		return errors.Wrapf(err, "opening archive %q failed", s.path)
	}

	s.archive = archive
	s.files = map[string]*zip.File{}
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, err := entryName(f)
		if err != nil {
			s.log.Warn("Skipping entry with invalid name", zap.String("path", s.path), zap.Error(err))
			continue
		}
		s.files[name] = f
	}
	s.names = lo.Keys(s.files)
	sort.Strings(s.names)
	return nil
}

// Close closes the archive.
func (s *Zip) Close() error {
	if s.archive == nil {
		return nil
	}
	return errors.WithStack(s.archive.Close())
}

// Size returns uncompressed size of the entry.
func (s *Zip) Size(name string) uint64 {
	f, exists := s.files[name]
	if !exists {
		return 0
	}
	return f.UncompressedSize64
}

// ReadInto decompresses the entry into the buffer.
func (s *Zip) ReadInto(name string, buf []byte) (uint64, error) {
	f, exists := s.files[name]
	if !exists {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := f.Open()
	if err != nil {
		return 0, errors.Wrapf(err, "opening entry %q failed", name)
	}
	defer r.Close()

	n, err := io.ReadFull(r, buf[:f.UncompressedSize64])
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return uint64(n), errors.Wrapf(err, "reading entry %q failed", name)
	}
	return uint64(n), nil
}

// Count returns the number of entries.
func (s *Zip) Count() int {
	return len(s.names)
}

// NameAt returns the name of i-th entry.
func (s *Zip) NameAt(i int) string {
	return s.names[i]
}

// Names returns names of all the entries.
func (s *Zip) Names() []string {
	return append([]string{}, s.names...)
}

// entryName returns the name of the entry. Names of entries not flagged as UTF-8 are stored in code page 437.
func entryName(f *zip.File) (string, error) {
	name := f.Name
	if f.NonUTF8 {
		decoded, err := charmap.CodePage437.NewDecoder().String(name)
		if err != nil {
			return "", errors.Wrapf(err, "decoding entry name %q failed", name)
		}
		name = decoded
	}
	return strings.TrimPrefix(name, "/"), nil
}
