package imgcache

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"github.com/aweris/imgcache/internal/address"
	"github.com/aweris/imgcache/internal/store"
)

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// Cache is a content-addressed image cache rooted under a host-provided
// directory.
//
// Cache holds no index. Every call resolves the root, derives file names
// from content and asks the filesystem, so one Cache can be shared by any
// number of goroutines.
type Cache struct {
	root     Root
	opts     *Options
	log      *log.Logger
	inflight singleflight.Group
}

// New creates a cache under root. Nothing is written until the first Save
// or EnsureDir.
func New(root Root, opts ...Option) (*Cache, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if !namespacePattern.MatchString(options.Namespace) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidNamespace, options.Namespace)
	}
	if root == nil {
		return nil, errors.New("imgcache: root is nil")
	}

	return &Cache{
		root: root,
		opts: options,
		log:  options.Logger.WithPrefix("imgcache"),
	}, nil
}

// Namespace returns the cache namespace.
func (c *Cache) Namespace() string { return c.opts.Namespace }

// RelDir returns the cache directory relative to the storage root, with
// forward slashes, e.g. ".claudian-cache/images".
func (c *Cache) RelDir() string {
	return "." + c.opts.Namespace + "/" + imagesDir
}

// Dir returns the absolute cache directory without creating it.
func (c *Cache) Dir() (string, error) {
	st, err := c.store()
	if err != nil {
		return "", err
	}
	return st.Dir(), nil
}

// EnsureDir creates the cache directory if needed and returns its absolute
// path. Calling it again is a no-op.
func (c *Cache) EnsureDir() (string, error) {
	st, err := c.store()
	if err != nil {
		return "", err
	}
	if err := st.EnsureDir(); err != nil {
		return "", err
	}
	return st.Dir(), nil
}

// Save stores payload unless identical content with the same extension is
// already cached, and describes the cached file.
//
// An empty payload is a no-op: Save returns a nil Image and a nil error so
// callers can pass optional image data straight through.
func (c *Cache) Save(payload []byte, mediaType, originalFilename string) (*Image, error) {
	if len(payload) == 0 {
		c.log.Debug("skipping empty payload", "name", originalFilename)
		return nil, nil
	}

	st, err := c.store()
	if err != nil {
		return nil, err
	}
	if err := st.EnsureDir(); err != nil {
		return nil, err
	}

	fingerprint, name := address.Name(payload, mediaType, originalFilename)
	absPath := filepath.Join(st.Dir(), name)

	// Callers sharing a flight get the leader's result; only the leader
	// may report the write as its own.
	leader := false
	v, err, _ := c.inflight.Do(absPath, func() (any, error) {
		leader = true
		return st.Put(name, payload)
	})
	if err != nil {
		return nil, fmt.Errorf("imgcache: save %s: %w", name, err)
	}
	created := v.(bool) && leader

	if created {
		c.log.Debug("cached image", "path", c.relPath(name), "size", len(payload))
	} else {
		c.log.Debug("image already cached", "path", c.relPath(name))
	}

	return &Image{
		Fingerprint: fingerprint,
		Ext:         strings.TrimPrefix(filepath.Ext(name), "."),
		RelPath:     c.relPath(name),
		AbsPath:     absPath,
		Size:        int64(len(payload)),
		Hit:         !created,
	}, nil
}

// Read returns the cached file at relPath encoded as standard base64.
func (c *Cache) Read(relPath string) (string, error) {
	data, err := c.ReadBytes(relPath)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ReadBytes returns the raw content of the cached file at relPath.
func (c *Cache) ReadBytes(relPath string) ([]byte, error) {
	st, name, err := c.resolve("read", relPath)
	if err != nil {
		return nil, err
	}
	if _, err := c.lstatFile(st, "read", relPath, name); err != nil {
		return nil, err
	}
	data, err := st.Get(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathError{Op: "read", Path: relPath, Err: ErrNotFound}
		}
		return nil, &PathError{Op: "read", Path: relPath, Err: err}
	}
	return data, nil
}

// Resolve maps a relative path returned by Save to its absolute location.
// It rejects anything that does not name a file directly inside the cache
// directory.
func (c *Cache) Resolve(relPath string) (string, error) {
	st, name, err := c.resolve("resolve", relPath)
	if err != nil {
		return "", err
	}
	return filepath.Join(st.Dir(), name), nil
}

// Stat describes the cached file at relPath.
func (c *Cache) Stat(relPath string) (Image, error) {
	st, name, err := c.resolve("stat", relPath)
	if err != nil {
		return Image{}, err
	}
	info, err := c.lstatFile(st, "stat", relPath, name)
	if err != nil {
		return Image{}, err
	}
	return c.imageFromInfo(st, info)
}

// List returns every image in the cache directory, sorted by file name.
// Files whose names were not produced by the cache are ignored.
func (c *Cache) List() ([]Image, error) {
	st, err := c.store()
	if err != nil {
		return nil, err
	}
	infos, err := st.List()
	if err != nil {
		return nil, err
	}

	images := make([]Image, 0, len(infos))
	for _, info := range infos {
		img, err := c.imageFromInfo(st, info)
		if err != nil {
			c.log.Debug("ignoring foreign file", "name", info.Name())
			continue
		}
		images = append(images, img)
	}
	return images, nil
}

// Stats counts the cached images and their total size.
func (c *Cache) Stats() (Stats, error) {
	images, err := c.List()
	if err != nil {
		return Stats{}, err
	}
	var s Stats
	for _, img := range images {
		s.Count++
		s.TotalSize += img.Size
	}
	return s, nil
}

// Verify re-hashes every cached image and returns the ones whose content
// does not match their name, sorted by path.
func (c *Cache) Verify() ([]Corruption, error) {
	st, err := c.store()
	if err != nil {
		return nil, err
	}
	images, err := c.List()
	if err != nil {
		return nil, err
	}

	p := pool.NewWithResults[*Corruption]().WithMaxGoroutines(c.opts.Concurrency)
	for _, img := range images {
		p.Go(func() *Corruption {
			name := path.Base(img.RelPath)
			data, err := st.Get(name)
			if err != nil {
				return &Corruption{RelPath: img.RelPath, Expected: img.Fingerprint, ReadFailure: err}
			}
			if actual := address.Fingerprint(data); actual != img.Fingerprint {
				return &Corruption{RelPath: img.RelPath, Expected: img.Fingerprint, Actual: actual}
			}
			return nil
		})
	}

	var corrupt []Corruption
	for _, r := range p.Wait() {
		if r == nil {
			continue
		}
		c.log.Warn("corrupt cache entry", "path", r.RelPath, "expected", r.Expected, "actual", r.Actual, "err", r.ReadFailure)
		corrupt = append(corrupt, *r)
	}
	sort.Slice(corrupt, func(i, j int) bool { return corrupt[i].RelPath < corrupt[j].RelPath })
	return corrupt, nil
}

type deleteOutcome struct {
	removed bool
	missing bool
	err     *PathError
}

// Delete removes the cached files at relPaths.
//
// Every path is attempted. Files that are already gone count as Missing,
// not as failures. All other failures are collected into a *DeleteError;
// the returned DeleteResult is valid either way.
func (c *Cache) Delete(relPaths []string) (DeleteResult, error) {
	outcomes := make([]deleteOutcome, len(relPaths))

	p := pool.New().WithMaxGoroutines(c.opts.Concurrency)
	for i, rel := range relPaths {
		p.Go(func() {
			outcomes[i] = c.deleteOne(rel)
		})
	}
	p.Wait()

	var (
		res  DeleteResult
		dErr DeleteError
	)
	for i, o := range outcomes {
		switch {
		case o.err != nil:
			c.log.Warn("failed to delete cached image", "path", relPaths[i], "err", o.err.Err)
			dErr.Failures = append(dErr.Failures, o.err)
		case o.missing:
			res.Missing = append(res.Missing, relPaths[i])
		case o.removed:
			res.Removed = append(res.Removed, relPaths[i])
		}
	}
	if len(dErr.Failures) > 0 {
		return res, &dErr
	}
	return res, nil
}

func (c *Cache) deleteOne(relPath string) deleteOutcome {
	st, name, err := c.resolve("delete", relPath)
	if err != nil {
		if errors.Is(err, ErrInvalidName) && !errors.Is(err, ErrPathEscape) && c.absent(relPath) {
			return deleteOutcome{missing: true}
		}
		return deleteOutcome{err: asPathError(err, "delete", relPath)}
	}
	if _, err := c.lstatFile(st, "delete", relPath, name); err != nil {
		if errors.Is(err, ErrNotFound) && !errors.Is(err, ErrPathEscape) {
			return deleteOutcome{missing: true}
		}
		return deleteOutcome{err: asPathError(err, "delete", relPath)}
	}

	removed, err := st.Remove(name)
	if err != nil {
		return deleteOutcome{err: &PathError{Op: "delete", Path: relPath, Err: err}}
	}
	if !removed {
		return deleteOutcome{missing: true}
	}
	c.log.Debug("deleted cached image", "path", relPath)
	return deleteOutcome{removed: true}
}

// absent reports whether nothing at all exists at relPath inside the cache
// directory. relPath must already have passed the directory checks of resolve.
func (c *Cache) absent(relPath string) bool {
	st, err := c.store()
	if err != nil {
		return false
	}
	name := path.Base(path.Clean(strings.ReplaceAll(strings.TrimSpace(relPath), `\`, "/")))
	_, err = st.Lstat(name)
	return os.IsNotExist(err)
}

// store builds the flat store for the current root. It is cheap and keeps
// no state, so the root may change between calls.
func (c *Cache) store() (store.Store, error) {
	rootPath, err := resolveRoot(c.root)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(rootPath, "."+c.opts.Namespace, imagesDir)
	return store.NewLocalStore(c.opts.Fs, dir,
		store.WithDirPerm(c.opts.DirPerm),
		store.WithFilePerm(c.opts.FilePerm),
	), nil
}

// resolve validates relPath and returns the store and file name it refers to.
func (c *Cache) resolve(op, relPath string) (store.Store, string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(relPath), `\`, "/")
	if p == "" {
		return nil, "", &PathError{Op: op, Path: relPath, Err: ErrNotFound}
	}
	if path.IsAbs(p) || filepath.IsAbs(relPath) || filepath.VolumeName(p) != "" {
		return nil, "", &PathError{Op: op, Path: relPath, Err: ErrPathEscape}
	}

	clean := path.Clean(p)
	if !filepath.IsLocal(filepath.FromSlash(clean)) {
		return nil, "", &PathError{Op: op, Path: relPath, Err: ErrPathEscape}
	}
	dir, name := path.Split(clean)
	if path.Clean(dir) != c.RelDir() {
		return nil, "", &PathError{Op: op, Path: relPath, Err: ErrPathEscape}
	}
	if _, _, err := address.Parse(name); err != nil {
		return nil, "", &PathError{Op: op, Path: relPath, Err: errors.Join(ErrNotFound, err)}
	}

	st, err := c.store()
	if err != nil {
		return nil, "", err
	}
	return st, name, nil
}

// lstatFile checks that name is a regular file. A symlink counts as an
// escape since the cache only ever writes regular files.
func (c *Cache) lstatFile(st store.Store, op, relPath, name string) (os.FileInfo, error) {
	info, err := st.Lstat(name)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &PathError{Op: op, Path: relPath, Err: ErrNotFound}
		}
		return nil, &PathError{Op: op, Path: relPath, Err: err}
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return nil, &PathError{Op: op, Path: relPath, Err: ErrPathEscape}
	}
	if !info.Mode().IsRegular() {
		return nil, &PathError{Op: op, Path: relPath, Err: store.ErrNotRegular}
	}
	return info, nil
}

func (c *Cache) imageFromInfo(st store.Store, info os.FileInfo) (Image, error) {
	fingerprint, ext, err := address.Parse(info.Name())
	if err != nil {
		return Image{}, err
	}
	return Image{
		Fingerprint: fingerprint,
		Ext:         ext,
		RelPath:     c.relPath(info.Name()),
		AbsPath:     filepath.Join(st.Dir(), info.Name()),
		Size:        info.Size(),
		ModTime:     info.ModTime(),
	}, nil
}

func (c *Cache) relPath(name string) string {
	return c.RelDir() + "/" + name
}

func asPathError(err error, op, relPath string) *PathError {
	var pe *PathError
	if errors.As(err, &pe) {
		return pe
	}
	return &PathError{Op: op, Path: relPath, Err: err}
}
