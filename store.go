package imgcache

import (
	"fmt"
	"path/filepath"
)

// Root is the single capability the cache needs from its host: resolving
// the base directory everything is stored under.
type Root interface {
	Path() (string, error)
}

// DirRoot is a Root fixed to one directory.
type DirRoot string

// Path returns the directory.
func (d DirRoot) Path() (string, error) { return string(d), nil }

// RootFunc adapts a function to Root, for hosts whose base path can change
// at runtime.
type RootFunc func() (string, error)

// Path calls f.
func (f RootFunc) Path() (string, error) { return f() }

func resolveRoot(r Root) (string, error) {
	if r == nil {
		return "", ErrRootNotAbsolute
	}
	p, err := r.Path()
	if err != nil {
		return "", fmt.Errorf("resolve storage root: %w", err)
	}
	if !filepath.IsAbs(p) {
		return "", fmt.Errorf("%w: %q", ErrRootNotAbsolute, p)
	}
	return filepath.Clean(p), nil
}
