package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	defaultDirPerm  = 0o755
	defaultFilePerm = 0o644
)

var _ Store = (*LocalStore)(nil)

// LocalStore implements Store on top of an afero filesystem.
//
// Writes go through a temp file in the same directory followed by a rename,
// so a reader either sees the whole file or no file at all.
type LocalStore struct {
	fs       afero.Fs
	dir      string
	dirPerm  os.FileMode
	filePerm os.FileMode
}

// Option configures a LocalStore.
type Option func(*LocalStore)

// WithDirPerm sets the permissions used when creating the store directory.
func WithDirPerm(mode os.FileMode) Option {
	return func(s *LocalStore) { s.dirPerm = mode }
}

// WithFilePerm sets the permissions of stored files.
func WithFilePerm(mode os.FileMode) Option {
	return func(s *LocalStore) { s.filePerm = mode }
}

// NewLocalStore returns a store writing into dir. The directory is not
// created until EnsureDir or Put is called.
func NewLocalStore(fs afero.Fs, dir string, opts ...Option) *LocalStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	s := &LocalStore{
		fs:       fs,
		dir:      filepath.Clean(dir),
		dirPerm:  defaultDirPerm,
		filePerm: defaultFilePerm,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dir returns the store directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// EnsureDir creates the store directory with all missing parents.
func (s *LocalStore) EnsureDir() error {
	if info, err := s.fs.Stat(s.dir); err == nil {
		if !info.IsDir() {
			return fmt.Errorf("failed to create directory %s: %w", s.dir, ErrNotDir)
		}
		return nil
	}
	if err := s.fs.MkdirAll(s.dir, s.dirPerm); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", s.dir, err)
	}
	// Some afero backends accept MkdirAll over an existing file.
	info, err := s.fs.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", s.dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("failed to create directory %s: %w", s.dir, ErrNotDir)
	}
	return nil
}

// Put stores data under name if nothing is stored there yet.
func (s *LocalStore) Put(name string, data []byte) (bool, error) {
	path := s.path(name)

	// 1. Check if already exists
	if info, err := s.Lstat(name); err == nil {
		if !info.Mode().IsRegular() {
			return false, fmt.Errorf("failed to write %s: %w", path, ErrNotRegular)
		}
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	if err := s.EnsureDir(); err != nil {
		return false, err
	}

	// 2. Write to a temp file next to the target
	tmp, err := afero.TempFile(s.fs, s.dir, TempPrefix+"*")
	if err != nil {
		return false, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmpPath)
		return false, fmt.Errorf("failed to write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpPath)
		return false, fmt.Errorf("failed to write object: %w", err)
	}
	if err := s.fs.Chmod(tmpPath, s.filePerm); err != nil {
		_ = s.fs.Remove(tmpPath)
		return false, fmt.Errorf("failed to chmod object: %w", err)
	}

	// 3. Move it into place
	if err := s.fs.Rename(tmpPath, path); err != nil {
		_ = s.fs.Remove(tmpPath)
		if _, statErr := s.fs.Stat(path); statErr == nil {
			// Lost a race against an identical write.
			return false, nil
		}
		return false, fmt.Errorf("failed to rename object: %w", err)
	}
	return true, nil
}

// Get reads the file stored under name.
func (s *LocalStore) Get(name string) ([]byte, error) {
	info, err := s.Lstat(name)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: %w", s.path(name), ErrNotRegular)
	}
	data, err := afero.ReadFile(s.fs, s.path(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	return data, nil
}

// Lstat describes name without following a trailing symlink when the
// filesystem supports it.
func (s *LocalStore) Lstat(name string) (os.FileInfo, error) {
	path := s.path(name)
	if lst, ok := s.fs.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(path)
		return info, err
	}
	return s.fs.Stat(path)
}

// Remove deletes name from the store.
func (s *LocalStore) Remove(name string) (bool, error) {
	err := s.fs.Remove(s.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("failed to remove object: %w", err)
}

// List returns the regular files in the store directory.
func (s *LocalStore) List() ([]os.FileInfo, error) {
	infos, err := afero.ReadDir(s.fs, s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", s.dir, err)
	}

	files := infos[:0]
	for _, info := range infos {
		if !info.Mode().IsRegular() || strings.HasPrefix(info.Name(), TempPrefix) {
			continue
		}
		files = append(files, info)
	}
	return files, nil
}

// path returns the filesystem path for name.
func (s *LocalStore) path(name string) string {
	return filepath.Join(s.dir, name)
}
