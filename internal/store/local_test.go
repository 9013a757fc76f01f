package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutGet(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "a", "b")
	s := NewLocalStore(afero.NewOsFs(), dir)

	created, err := s.Put("obj.png", []byte("hello"))
	require.NoError(t, err)
	assert.True(t, created)

	got, err := s.Get("obj.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)

	info, err := os.Stat(filepath.Join(dir, "obj.png"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(defaultFilePerm), info.Mode().Perm())
}

func TestLocalStorePutExistingSkipsWrite(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s := NewLocalStore(fs, "/root/images")

	created, err := s.Put("obj.bin", []byte("first"))
	require.NoError(t, err)
	require.True(t, created)

	created, err = s.Put("obj.bin", []byte("second"))
	require.NoError(t, err)
	assert.False(t, created)

	got, err := s.Get("obj.bin")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), got, "existing content must not be overwritten")
}

func TestLocalStorePutLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := NewLocalStore(nil, dir)

	_, err := s.Put("one.png", []byte("1"))
	require.NoError(t, err)
	_, err = s.Put("two.png", []byte("2"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"one.png", "two.png"}, names)
}

func TestLocalStorePutOverDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "obj.png"), 0o755))

	s := NewLocalStore(nil, dir)
	_, err := s.Put("obj.png", []byte("x"))
	assert.ErrorIs(t, err, ErrNotRegular)
}

func TestLocalStoreEnsureDirIdempotent(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "x", "y", "z")
	s := NewLocalStore(nil, dir)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.EnsureDir())
	}
	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestLocalStoreEnsureDirFileInTheWay(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	blocker := filepath.Join(root, "images")
	require.NoError(t, os.WriteFile(blocker, []byte("not a dir"), 0o644))

	s := NewLocalStore(nil, blocker)
	err := s.EnsureDir()
	require.Error(t, err)
}

func TestLocalStoreEnsureDirReadOnly(t *testing.T) {
	t.Parallel()

	s := NewLocalStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/root/images")
	require.Error(t, s.EnsureDir())

	_, err := s.Put("obj.png", []byte("x"))
	require.Error(t, err)
}

func TestLocalStoreGetMissing(t *testing.T) {
	t.Parallel()

	s := NewLocalStore(afero.NewMemMapFs(), "/root/images")
	_, err := s.Get("missing.png")
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreGetSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outside := filepath.Join(t.TempDir(), "secret")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	require.NoError(t, os.Symlink(outside, filepath.Join(dir, "link.png")))

	s := NewLocalStore(nil, dir)
	_, err := s.Get("link.png")
	assert.ErrorIs(t, err, ErrNotRegular)

	info, err := s.Lstat("link.png")
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)
}

func TestLocalStoreRemove(t *testing.T) {
	t.Parallel()

	s := NewLocalStore(afero.NewMemMapFs(), "/root/images")
	_, err := s.Put("obj.png", []byte("x"))
	require.NoError(t, err)

	removed, err := s.Remove("obj.png")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.Remove("obj.png")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestLocalStoreList(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	s := NewLocalStore(fs, "/root/images")

	files, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, files, "missing directory lists as empty")

	for _, name := range []string{"b.png", "a.jpg"} {
		_, err := s.Put(name, []byte(name))
		require.NoError(t, err)
	}
	require.NoError(t, afero.WriteFile(fs, "/root/images/"+TempPrefix+"42", []byte("partial"), 0o600))
	require.NoError(t, fs.Mkdir("/root/images/sub", 0o755))

	files, err = s.List()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a.jpg", files[0].Name())
	assert.Equal(t, "b.png", files[1].Name())
}
