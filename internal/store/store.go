// Package store implements the flat on-disk layer under the image cache.
//
// A Store owns one directory and addresses files in it by bare name. It has
// no notion of fingerprints or media types and keeps no in-memory state:
// every call goes to the filesystem.
//
// Layout:
//
//	<dir>/
//	  3a6eb079...c8b7.png  (one regular file per name)
//	  cache-123456         (temp file, only while a Put is in flight)
package store

import (
	"errors"
	"os"
)

// TempPrefix prefixes temp files created by Put. Listings should skip them.
const TempPrefix = "cache-"

var (
	// ErrNotDir is returned when the store directory path is taken by something
	// that is not a directory.
	ErrNotDir = errors.New("not a directory")

	// ErrNotRegular is returned when a name resolves to a directory, symlink or
	// device instead of a regular file.
	ErrNotRegular = errors.New("not a regular file")
)

// Store handles flat file storage in a single directory.
type Store interface {
	// Dir returns the directory the store writes into.
	Dir() string

	// EnsureDir creates the directory and its parents. Safe to call repeatedly.
	EnsureDir() error

	// Put writes data under name unless a file with that name already exists.
	// created reports whether a write happened.
	Put(name string, data []byte) (created bool, err error)

	// Get reads the file stored under name.
	Get(name string) ([]byte, error)

	// Lstat describes name without following symlinks.
	Lstat(name string) (os.FileInfo, error)

	// Remove deletes name. A missing file is not an error; removed is false.
	Remove(name string) (removed bool, err error)

	// List returns every regular, non-temp file in the directory, sorted by name.
	List() ([]os.FileInfo, error)
}
