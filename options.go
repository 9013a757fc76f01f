package imgcache

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"github.com/aweris/imgcache/internal/compression"
)

const (
	// DefaultNamespace names the hidden directory under the storage root.
	DefaultNamespace = "claudian-cache"

	// DefaultConcurrency bounds the workers used by Delete and Verify.
	DefaultConcurrency = 4

	imagesDir = "images"
)

// Options configures a Cache.
type Options struct {
	Namespace   string
	Fs          afero.Fs
	Logger      *log.Logger
	DirPerm     os.FileMode
	FilePerm    os.FileMode
	Concurrency int

	// CompressionLevel is the zstd level of exported bundles: 1 fastest,
	// 2 default, 3 better compression.
	CompressionLevel int
}

// Option is a functional option for configuring New.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Namespace:   DefaultNamespace,
		Fs:          afero.NewOsFs(),
		Logger:      log.New(io.Discard),
		DirPerm:     0o755,
		FilePerm:    0o644,
		Concurrency: DefaultConcurrency,

		CompressionLevel: compression.DefaultLevel,
	}
}

// WithNamespace sets the cache namespace. The cache lives in
// <root>/.<namespace>/images.
func WithNamespace(ns string) Option {
	return func(o *Options) { o.Namespace = ns }
}

// WithFs sets the filesystem used for all cache IO. Defaults to the OS
// filesystem.
func WithFs(fs afero.Fs) Option {
	return func(o *Options) {
		if fs != nil {
			o.Fs = fs
		}
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(l *log.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithDirPerm sets the permissions of created cache directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(o *Options) { o.DirPerm = mode }
}

// WithFilePerm sets the permissions of cached image files.
func WithFilePerm(mode os.FileMode) Option {
	return func(o *Options) { o.FilePerm = mode }
}

// WithConcurrency sets the number of parallel workers for Delete and Verify.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithCompressionLevel sets the zstd level used by Export, from 1 (fastest)
// to 3 (smallest). Out of range values are ignored.
func WithCompressionLevel(level int) Option {
	return func(o *Options) {
		if level >= 1 && level <= 3 {
			o.CompressionLevel = level
		}
	}
}
