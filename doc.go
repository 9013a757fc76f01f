// Package imgcache provides a content-addressed cache for images attached to
// notes.
//
// Every unique payload is stored exactly once, under a name derived from the
// sha256 of its bytes, in a flat directory below a host-provided root:
//
//	<root>/.claudian-cache/images/<sha256>.<ext>
//
// The returned relative path is stable for as long as the image is cached.
// There is no index or manifest: lookups are existence checks on
// content-derived names.
//
// Basic usage:
//
//	c, _ := imgcache.New(imgcache.DirRoot("/path/to/vault"))
//
//	// Store an image (writes only on a cache miss)
//	img, _ := c.Save(data, "image/png", "screenshot.png")
//	fmt.Println(img.RelPath, img.Hit)
//
//	// Load it back as base64, e.g. for a vision message
//	b64, _ := c.Read(img.RelPath)
//
//	// Remove images no longer referenced
//	_, err := c.Delete([]string{img.RelPath})
//
// Maintenance:
//
//	images, _ := c.List()        // every cached image
//	stats, _ := c.Stats()        // count and total size
//	corrupt, _ := c.Verify()     // files whose content no longer matches their name
//	n, _ := c.Export(w)          // zstd-compressed tar bundle
//	res, _ := c.Import(r)        // re-fingerprinted on the way in
package imgcache
