package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/aweris/imgcache"
)

var exportCmd = &cobra.Command{
	Use:   "export <bundle>",
	Short: "Export the cache to a bundle file",
	Long:  "Write every cached image into a zstd-compressed tar bundle. Use - for stdout.",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <bundle>",
	Short: "Import images from a bundle file",
	Long:  "Save every image of a bundle into the cache. Use - for stdin. Entries whose content does not match their name are rejected.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func init() {
	exportCmd.Flags().Int("level", 2, "compression level: 1 fastest, 2 default, 3 smallest")
	rootCmd.AddCommand(exportCmd, importCmd)
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	level, _ := cmd.Flags().GetInt("level")
	if level < 1 || level > 3 {
		return fmt.Errorf("invalid compression level %d: must be 1, 2 or 3", level)
	}
	c, err := openCache(imgcache.WithCompressionLevel(level))
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if args[0] != "-" {
		f, err := os.Create(args[0])
		if err != nil {
			return err
		}
		defer func() {
			if cerr := f.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		w = f
	}

	n, err := c.Export(w)
	if err != nil {
		return fmt.Errorf("export failed: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d images.\n", n)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	res, err := c.Import(r)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Imported %d new, %d existing, %d rejected.\n", res.Added, res.Existing, res.Rejected)
	return nil
}
