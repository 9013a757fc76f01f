// Package address derives content-addressed file names for cached images.
//
// A name is the sha256 fingerprint of the payload in lowercase hex, followed
// by an extension picked from the media type or the caller's filename:
//
//	3a6eb0790f39ac87c94f3856b2dd2c5d110e6811602261a9a923d3bb23adc8b7.png
//
// Naming is pure: the same payload and extension always map to the same name,
// independent of any state on disk.
package address

import (
	_ "crypto/sha256" // registers the hash used by digest.Canonical
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/opencontainers/go-digest"
)

// DefaultExtension is used when neither the media type nor the original
// filename yields an extension.
const DefaultExtension = "bin"

const maxExtensionLen = 10

// ErrInvalidName is returned by Parse for names that were not produced by Name.
var ErrInvalidName = errors.New("imgcache: invalid cache file name")

var mediaTypeExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/jpg":  "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Fingerprint returns the lowercase hex sha256 of payload.
func Fingerprint(payload []byte) string {
	return digest.FromBytes(payload).Encoded()
}

// Extension picks the file extension for an image.
//
// The media type wins when it is one of the known image types. Otherwise the
// extension of originalFilename is used if it looks sane, and DefaultExtension
// as a last resort.
func Extension(mediaType, originalFilename string) string {
	if ext, ok := mediaTypeExtensions[normalizeMediaType(mediaType)]; ok {
		return ext
	}
	if ext := filenameExtension(originalFilename); ext != "" {
		return ext
	}
	return DefaultExtension
}

// Name returns the fingerprint of payload and the cache file name derived
// from it.
func Name(payload []byte, mediaType, originalFilename string) (fingerprint, filename string) {
	fingerprint = Fingerprint(payload)
	return fingerprint, fingerprint + "." + Extension(mediaType, originalFilename)
}

// Parse splits a cache file name back into fingerprint and extension.
func Parse(filename string) (fingerprint, ext string, err error) {
	fingerprint, ext, ok := strings.Cut(filename, ".")
	if !ok || !validExtension(ext) {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidName, filename)
	}
	if err := digest.NewDigestFromEncoded(digest.SHA256, fingerprint).Validate(); err != nil {
		return "", "", fmt.Errorf("%w: %q: %v", ErrInvalidName, filename, err)
	}
	return fingerprint, ext, nil
}

// Matches reports whether payload hashes to fingerprint.
func Matches(payload []byte, fingerprint string) bool {
	return Fingerprint(payload) == fingerprint
}

func normalizeMediaType(mediaType string) string {
	mt, _, _ := strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func filenameExtension(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, `\`, "/"))
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(path.Base(name)), "."))
	if !validExtension(ext) {
		return ""
	}
	return ext
}

func validExtension(ext string) bool {
	if ext == "" || len(ext) > maxExtensionLen {
		return false
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}
