package imgcache

import (
	"io"
	"time"
)

// ImageCache is the caller-facing contract of the cache. *Cache implements it;
// hosts depend on the interface so UI code can be tested with fakes.
type ImageCache interface {
	EnsureDir() (string, error)
	Save(payload []byte, mediaType, originalFilename string) (*Image, error)
	Read(relPath string) (string, error)
	Delete(relPaths []string) (DeleteResult, error)
}

// BulkCache adds the maintenance operations used by the CLI.
type BulkCache interface {
	ImageCache

	Stat(relPath string) (Image, error)
	List() ([]Image, error)
	Stats() (Stats, error)
	Verify() ([]Corruption, error)
	Export(w io.Writer) (int, error)
	Import(r io.Reader) (ImportResult, error)
}

var _ BulkCache = (*Cache)(nil)

// Image describes one cached file. It is rebuilt from the file name on disk;
// the cache keeps no other record of it.
type Image struct {
	Fingerprint string    // lowercase hex sha256 of the content
	Ext         string    // extension without the dot
	RelPath     string    // slash-separated, relative to the storage root
	AbsPath     string    // absolute filesystem path
	Size        int64     // content length in bytes
	ModTime     time.Time // zero for images returned by Save
	Hit         bool      // Save found the content already cached
}

// Stats summarizes the cache directory.
type Stats struct {
	Count     int
	TotalSize int64
}

// Corruption is a cached file whose content no longer hashes to its name.
type Corruption struct {
	RelPath     string
	Expected    string
	Actual      string
	ReadFailure error
}

// DeleteResult reports what Delete did with each input path, in input order.
type DeleteResult struct {
	Removed []string
	Missing []string
}

// ImportResult counts the entries of an imported bundle.
type ImportResult struct {
	Added    int
	Existing int
	Rejected int
}
