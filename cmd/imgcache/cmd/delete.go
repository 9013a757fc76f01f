package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aweris/imgcache"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <relpath>...",
	Aliases: []string{"rm"},
	Short:   "Delete cached images",
	Long:    "Delete cached images by relative path. Paths that are already gone are skipped.",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runDelete,
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}

	res, err := c.Delete(args)
	out := cmd.OutOrStdout()
	for _, p := range res.Removed {
		fmt.Fprintf(out, "removed\t%s\n", p)
	}
	for _, p := range res.Missing {
		fmt.Fprintf(out, "missing\t%s\n", p)
	}

	var dErr *imgcache.DeleteError
	if errors.As(err, &dErr) {
		for _, f := range dErr.Failures {
			fmt.Fprintf(out, "failed\t%s\t%v\n", f.Path, f.Err)
		}
		return fmt.Errorf("%d of %d deletions failed", len(dErr.Failures), len(args))
	}
	return err
}
