package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var readCmd = &cobra.Command{
	Use:   "read <relpath>",
	Short: "Print a cached image",
	Long:  "Print a cached image as base64, or as raw bytes with --raw.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRead,
}

func init() {
	readCmd.Flags().Bool("raw", false, "write raw bytes instead of base64")
	rootCmd.AddCommand(readCmd)
}

func runRead(cmd *cobra.Command, args []string) error {
	raw, _ := cmd.Flags().GetBool("raw")

	c, err := openCache()
	if err != nil {
		return err
	}

	if raw {
		data, err := c.ReadBytes(args[0])
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	b64, err := c.Read(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), b64)
	return nil
}
