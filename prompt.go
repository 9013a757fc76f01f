package imgcache

import "github.com/aweris/imgcache/internal/prompt"

// MediaFolderInstruction returns the agent instruction describing images
// embedded in notes with ![[image.png]] syntax and stored in mediaFolder.
func MediaFolderInstruction(mediaFolder string) string {
	return prompt.MediaFolder(mediaFolder)
}

// Instruction returns the agent instruction describing where this cache
// keeps attached images.
func (c *Cache) Instruction() string {
	return prompt.CacheDirectory(c.RelDir())
}
