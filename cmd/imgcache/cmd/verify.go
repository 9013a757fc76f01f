package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check cached images against their fingerprints",
	Long:  "Re-hash every cached image and report files whose content no longer matches their name.",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, _ []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}

	corrupt, err := c.Verify()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, bad := range corrupt {
		if bad.ReadFailure != nil {
			fmt.Fprintf(out, "unreadable\t%s\t%v\n", bad.RelPath, bad.ReadFailure)
			continue
		}
		fmt.Fprintf(out, "corrupt\t%s\tgot %s\n", bad.RelPath, bad.Actual)
	}
	if len(corrupt) > 0 {
		return fmt.Errorf("%d corrupt images", len(corrupt))
	}
	fmt.Fprintln(out, "ok")
	return nil
}
