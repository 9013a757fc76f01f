package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aweris/imgcache"
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print agent instructions for locating images",
	Long:  "Print the system prompt sections that tell an agent where embedded and attached images live.",
	Args:  cobra.NoArgs,
	RunE:  runPrompt,
}

var dirCmd = &cobra.Command{
	Use:   "dir",
	Short: "Create the cache directory and print its path",
	Args:  cobra.NoArgs,
	RunE:  runDir,
}

func init() {
	promptCmd.Flags().String("media-folder", "", "vault media folder for embedded images (default: vault root)")
	viper.BindPFlag("media_folder", promptCmd.Flags().Lookup("media-folder"))
	rootCmd.AddCommand(promptCmd, dirCmd)
}

func runPrompt(cmd *cobra.Command, _ []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), imgcache.MediaFolderInstruction(viper.GetString("media_folder")))
	fmt.Fprintln(cmd.OutOrStdout(), c.Instruction())
	return nil
}

func runDir(cmd *cobra.Command, _ []string) error {
	c, err := openCache()
	if err != nil {
		return err
	}
	dir, err := c.EnsureDir()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), dir)
	return nil
}
