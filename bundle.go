package imgcache

import (
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aweris/imgcache/internal/address"
	"github.com/aweris/imgcache/internal/bundle"
)

// Export writes every cached image to w as a zstd-compressed tar bundle and
// returns the number of images written.
func (c *Cache) Export(w io.Writer) (int, error) {
	st, err := c.store()
	if err != nil {
		return 0, err
	}
	images, err := c.List()
	if err != nil {
		return 0, err
	}

	bw, err := bundle.NewWriter(w, c.opts.CompressionLevel)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, img := range images {
		name := path.Base(img.RelPath)
		data, err := st.Get(name)
		if err != nil {
			_ = bw.Close()
			return n, fmt.Errorf("imgcache: export %s: %w", img.RelPath, err)
		}
		if err := bw.Add(bundle.Entry{Name: name, Data: data, ModTime: img.ModTime}); err != nil {
			_ = bw.Close()
			return n, err
		}
		n++
	}
	if err := bw.Close(); err != nil {
		return n, err
	}
	c.log.Debug("exported bundle", "images", n)
	return n, nil
}

// Import saves every image of a bundle produced by Export.
//
// Names in the bundle are not trusted: each entry goes through Save, and an
// entry whose content does not hash to its name is rejected, as are links,
// directories and oversized entries.
func (c *Cache) Import(r io.Reader) (ImportResult, error) {
	var res ImportResult

	br, err := bundle.NewReader(r)
	if err != nil {
		return res, err
	}
	defer br.Close()

	for {
		e, err := br.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if bundle.Skippable(err) {
				c.log.Warn("rejected bundle entry", "err", err)
				res.Rejected++
				continue
			}
			return res, fmt.Errorf("imgcache: import: %w", err)
		}

		fingerprint, ext, err := address.Parse(e.Name)
		if err != nil || len(e.Data) == 0 || !address.Matches(e.Data, fingerprint) {
			c.log.Warn("rejected bundle entry", "name", e.Name)
			res.Rejected++
			continue
		}

		img, err := c.Save(e.Data, "", "."+ext)
		if err != nil {
			return res, fmt.Errorf("imgcache: import %s: %w", e.Name, err)
		}
		if img.Hit {
			res.Existing++
		} else {
			res.Added++
		}
	}
	c.log.Debug("imported bundle", "added", res.Added, "existing", res.Existing, "rejected", res.Rejected)
	return res, nil
}
