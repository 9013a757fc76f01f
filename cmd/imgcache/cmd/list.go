package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached images",
	Long:  "List every image in the cache directory with its size and age.",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(listCmd, statsCmd)
}

func runList(cmd *cobra.Command, _ []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}

	images, err := c.List()
	if err != nil {
		return err
	}
	if len(images) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "(no images)")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, img := range images {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", img.RelPath, humanize.IBytes(uint64(img.Size)), humanize.Time(img.ModTime))
	}
	return tw.Flush()
}

func runStats(cmd *cobra.Command, _ []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}

	stats, err := c.Stats()
	if err != nil {
		return err
	}
	dir, err := c.Dir()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n%s images, %s\n", dir, humanize.Comma(int64(stats.Count)), humanize.IBytes(uint64(stats.TotalSize)))
	return nil
}
