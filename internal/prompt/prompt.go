// Package prompt renders the instructions that tell an agent where images
// referenced from notes can be found on disk.
package prompt

import (
	"fmt"
	"path"
	"strings"
)

// MediaFolder returns the system prompt section describing embedded images
// (![[image.png]]) stored in the vault's media folder. An empty folder means
// the vault root.
func MediaFolder(mediaFolder string) string {
	folder := strings.TrimSpace(mediaFolder)
	mediaPath := "."
	examplePath := ""
	if folder != "" {
		mediaPath = "./" + folder
		examplePath = folder + "/"
	}

	return fmt.Sprintf(`

# Embedded Images in Notes

When you see embedded images in Obsidian markdown notes using the syntax `+"`![[image.jpg]]`"+` or `+"`![[image.png]]`"+`:
- The actual image file is located in the media folder: `+"`%[1]s`"+`
- To view/analyze the image, use Read with the full path: `+"`%[1]s/image.jpg`"+`
- Example: If a note contains `+"`![[screenshot.png]]`"+`, read it with: Read file_path="%[2]sscreenshot.png"
- Supported formats: PNG, JPG/JPEG, GIF, WebP`, mediaPath, examplePath)
}

// CacheDirectory returns the system prompt section describing images the
// user pasted into the conversation, which live in the content-addressed
// cache under relDir (relative to the vault root).
func CacheDirectory(relDir string) string {
	dir := path.Clean(strings.ReplaceAll(strings.TrimSpace(relDir), `\`, "/"))

	return fmt.Sprintf(`

# Attached Images

Images attached to messages are cached in `+"`./%[1]s`"+`, one file per unique image, named by the SHA-256 of their content.
- Attachments are referenced by their path relative to the vault root, e.g. `+"`%[1]s/<sha256>.png`"+`
- To view an attachment again, use Read with that relative path
- Files in this directory are managed by the cache; do not edit or rename them`, dir)
}
