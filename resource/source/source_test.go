package source

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forgecore/engine/resource"
	"github.com/forgecore/engine/test"
)

var (
	_ resource.Source = &Memory{}
	_ resource.Source = &Directory{}
	_ resource.Source = &Zip{}
	_ resource.Source = &Master{}
)

func TestMemory(t *testing.T) {
	requireT := require.New(t)

	s := NewMemory(map[string][]byte{
		"b": []byte("bbb"),
		"a": []byte("a"),
	})
	requireT.NoError(s.Open())
	requireT.Equal(2, s.Count())
	requireT.Equal("a", s.NameAt(0))
	requireT.Equal([]string{"a", "b"}, s.Names())
	requireT.EqualValues(3, s.Size("b"))
	requireT.Equal("bbb", test.Read(t, s, "b"))
	requireT.Zero(s.Size("missing"))
}

func TestDirectoryWithManifest(t *testing.T) {
	requireT := require.New(t)

	dir := t.TempDir()
	test.WriteTree(t, dir, map[string]string{
		"shaders/basic.vert": "void main() {}",
		"shaders/basic.frag": "void main() {}",
		"textures/wall.png":  "png",
		"secret.txt":         "hidden",
		".git/config":        "ignored",
		".hidden":            "ignored",
		ManifestFile: `<?xml version="1.0"?>
<Manifest>
	<Blacklist>
		<File name="secret.txt"/>
		<File name="textures/wall.png"/>
	</Blacklist>
</Manifest>`,
	})

	s := NewDirectory(dir, nil)
	requireT.NoError(s.Open())
	requireT.Equal([]string{"shaders/basic.frag", "shaders/basic.vert"}, s.Names())
	requireT.EqualValues(len("void main() {}"), s.Size("shaders/basic.vert"))
	requireT.Equal("void main() {}", test.Read(t, s, "shaders/basic.vert"))

	requireT.Zero(s.Size("secret.txt"))
	n, err := s.ReadInto("secret.txt", make([]byte, 10))
	requireT.NoError(err)
	requireT.Zero(n)
}

func TestDirectoryWithoutManifest(t *testing.T) {
	requireT := require.New(t)

	dir := t.TempDir()
	test.WriteTree(t, dir, map[string]string{
		"a.txt": "a",
	})

	s := NewDirectory(dir, nil)
	requireT.NoError(s.Open())
	requireT.Equal([]string{"a.txt"}, s.Names())
}

func TestDirectoryWithInvalidManifest(t *testing.T) {
	requireT := require.New(t)

	dir := t.TempDir()
	test.WriteTree(t, dir, map[string]string{
		ManifestFile: "<Manifest><Blacklist>",
	})

	requireT.Error(NewDirectory(dir, nil).Open())
}

func TestDirectoryMissing(t *testing.T) {
	require.Error(t, NewDirectory(filepath.Join(t.TempDir(), "missing"), nil).Open())
}

func TestZip(t *testing.T) {
	requireT := require.New(t)

	path := filepath.Join(t.TempDir(), "pack.zip")
	test.WriteZip(t, path, map[string]string{
		"textures/stone.png": "stone",
		"readme.txt":         "read me",
	})

	s := NewZip(path, nil)
	requireT.NoError(s.Open())
	t.Cleanup(func() {
		requireT.NoError(s.Close())
	})

	requireT.Equal([]string{"readme.txt", "textures/stone.png"}, s.Names())
	requireT.EqualValues(5, s.Size("textures/stone.png"))
	requireT.Equal("stone", test.Read(t, s, "textures/stone.png"))
	requireT.Equal("read me", test.Read(t, s, "readme.txt"))
	requireT.Zero(s.Size("missing"))
}

func TestZipInvalid(t *testing.T) {
	dir := t.TempDir()
	test.WriteTree(t, dir, map[string]string{
		"broken.zip": "this is not an archive",
	})

	require.Error(t, NewZip(filepath.Join(dir, "broken.zip"), nil).Open())
}

func TestMaster(t *testing.T) {
	requireT := require.New(t)

	dir := t.TempDir()
	test.WriteTree(t, dir, map[string]string{
		"base/shaders/basic.vert": "base vert",
		"base/shaders/basic.frag": "base frag",
		"notes.md":                "not a source",
	})
	test.WriteZip(t, filepath.Join(dir, "patch.ZIP"), map[string]string{
		"shaders/basic.vert": "patched vert",
		"textures/new.png":   "new",
	})

	s := NewMaster(dir, nil)
	requireT.NoError(s.Open())
	t.Cleanup(func() {
		requireT.NoError(s.Close())
	})

	requireT.Equal(2, s.Sources())
	requireT.Equal([]string{"shaders/basic.frag", "shaders/basic.vert", "textures/new.png"}, s.Names())
	requireT.Equal(3, s.Count())

	// "patch.ZIP" is opened after "base", so it overrides the resource.
	requireT.Equal("patched vert", test.Read(t, s, "shaders/basic.vert"))
	requireT.Equal("base frag", test.Read(t, s, "shaders/basic.frag"))
	requireT.Equal("new", test.Read(t, s, "textures/new.png"))
	requireT.Zero(s.Size("notes.md"))
}

func TestMasterSkipsBrokenSources(t *testing.T) {
	requireT := require.New(t)

	dir := t.TempDir()
	test.WriteTree(t, dir, map[string]string{
		"broken.zip":          "garbage",
		"good/a.txt":          "a",
		"bad/" + ManifestFile: "<Manifest>",
	})

	s := NewMaster(dir, nil)
	requireT.NoError(s.Open())
	requireT.Equal(1, s.Sources())
	requireT.Equal([]string{"a.txt"}, s.Names())
}

func TestArchiveDetection(t *testing.T) {
	requireT := require.New(t)

	requireT.True(isArchive("a.zip"))
	requireT.True(isArchive("a.Zip"))
	requireT.True(isArchive("a.ZIP"))
	requireT.False(isArchive("a.zipx"))
	requireT.False(isArchive("zip"))
}
