package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Save an image into the cache",
	Long: "Save an image into the cache and print its path relative to the storage root.\n" +
		"Use - to read the image from stdin. Identical content is stored only once.",
	Args: cobra.ExactArgs(1),
	RunE: runSave,
}

func init() {
	saveCmd.Flags().String("media-type", "", "media type of the image (default: sniffed from content)")
	saveCmd.Flags().String("name", "", "original filename, used for the extension when the media type is unknown")
	rootCmd.AddCommand(saveCmd)
}

func runSave(cmd *cobra.Command, args []string) error {
	src := args[0]
	mediaType, _ := cmd.Flags().GetString("media-type")
	name, _ := cmd.Flags().GetString("name")

	var (
		data []byte
		err  error
	)
	if src == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(src)
		if name == "" {
			name = filepath.Base(src)
		}
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if mediaType == "" && len(data) > 0 {
		mediaType = http.DetectContentType(data)
	}

	c, err := openCache()
	if err != nil {
		return err
	}
	img, err := c.Save(data, mediaType, name)
	if err != nil {
		return err
	}
	if img == nil {
		logger.Warn("empty image, nothing saved", "src", src)
		return nil
	}

	logger.Debug("saved", "path", img.RelPath, "hit", img.Hit, "media_type", mediaType)
	fmt.Fprintln(cmd.OutOrStdout(), img.RelPath)
	return nil
}
