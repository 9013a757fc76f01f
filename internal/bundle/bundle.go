// Package bundle reads and writes cache bundles: a zstd-compressed tar
// stream holding flat, regular files.
//
// Bundles carry no metadata beyond file names. Importers are expected to
// re-derive identity from content instead of trusting the names.
package bundle

import (
	"archive/tar"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/aweris/imgcache/internal/compression"
)

// MaxEntrySize caps the size of a single bundle entry.
const MaxEntrySize = 64 << 20

var (
	// ErrUnsupportedEntry marks entries that are not flat regular files.
	ErrUnsupportedEntry = errors.New("unsupported bundle entry")

	// ErrEntryTooLarge marks entries bigger than MaxEntrySize.
	ErrEntryTooLarge = errors.New("bundle entry too large")
)

// Entry is a single file in a bundle.
type Entry struct {
	Name    string
	Data    []byte
	ModTime time.Time
}

// Writer appends entries to a bundle.
type Writer struct {
	zw *zstd.Encoder
	tw *tar.Writer
}

// NewWriter starts a bundle on w. Level follows compression.EncoderLevel.
func NewWriter(w io.Writer, level int) (*Writer, error) {
	zw, err := compression.NewWriter(w, level)
	if err != nil {
		return nil, fmt.Errorf("create zstd writer: %w", err)
	}
	return &Writer{zw: zw, tw: tar.NewWriter(zw)}, nil
}

// Add writes one entry.
func (w *Writer) Add(e Entry) error {
	if !flatName(e.Name) {
		return fmt.Errorf("%w: %q", ErrUnsupportedEntry, e.Name)
	}
	hdr := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     e.Name,
		Mode:     0o644,
		Size:     int64(len(e.Data)),
		ModTime:  e.ModTime.UTC().Truncate(time.Second),
		Format:   tar.FormatPAX,
	}
	if err := w.tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("write header %s: %w", e.Name, err)
	}
	if _, err := w.tw.Write(e.Data); err != nil {
		return fmt.Errorf("write %s: %w", e.Name, err)
	}
	return nil
}

// Close finishes the tar stream and flushes the zstd frame. The underlying
// writer is left open.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		_ = w.zw.Close()
		return fmt.Errorf("close tar: %w", err)
	}
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("close zstd: %w", err)
	}
	return nil
}

// Reader iterates over the entries of a bundle.
type Reader struct {
	zr io.ReadCloser
	tr *tar.Reader
}

// NewReader opens a bundle read from r.
func NewReader(r io.Reader) (*Reader, error) {
	zr, err := compression.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("open zstd reader: %w", err)
	}
	return &Reader{zr: zr, tr: tar.NewReader(zr)}, nil
}

// Next returns the next entry, or io.EOF at the end of the bundle.
//
// Entries that are not acceptable (links, directories, nested or absolute
// names, oversized files) are reported with ErrUnsupportedEntry or
// ErrEntryTooLarge and the returned Entry carries only the name. Reading may
// continue after such an error.
func (r *Reader) Next() (Entry, error) {
	hdr, err := r.tr.Next()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("read bundle: %w", err)
	}

	e := Entry{Name: hdr.Name, ModTime: hdr.ModTime}
	if hdr.Typeflag != tar.TypeReg || !flatName(hdr.Name) {
		return e, fmt.Errorf("%w: %q", ErrUnsupportedEntry, hdr.Name)
	}
	if hdr.Size < 0 || hdr.Size > MaxEntrySize {
		return e, fmt.Errorf("%w: %q (%d bytes)", ErrEntryTooLarge, hdr.Name, hdr.Size)
	}

	data := make([]byte, hdr.Size)
	if _, err := io.ReadFull(r.tr, data); err != nil {
		return e, fmt.Errorf("read %s: %w", hdr.Name, err)
	}
	e.Data = data
	return e, nil
}

// Close releases the decoder. The underlying reader is left open.
func (r *Reader) Close() error {
	return r.zr.Close()
}

// Skippable reports whether err only concerns a single entry.
func Skippable(err error) bool {
	return errors.Is(err, ErrUnsupportedEntry) || errors.Is(err, ErrEntryTooLarge)
}

func flatName(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return false
	}
	return name == path.Clean(name) && name != "." && name != ".."
}
