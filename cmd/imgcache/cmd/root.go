package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aweris/imgcache"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{Prefix: "imgcache"})

var rootCmd = &cobra.Command{
	Use:           "imgcache",
	Short:         "Content-addressed image cache CLI",
	Long:          "CLI for saving, reading and cleaning up images in a vault's content-addressed cache.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if viper.GetBool("debug") {
			logger.SetLevel(log.DebugLevel)
		} else {
			logger.SetLevel(log.InfoLevel)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: <user config dir>/imgcache/config.yaml)")
	rootCmd.PersistentFlags().String("root", "", "storage root, usually the vault directory (default: current directory)")
	rootCmd.PersistentFlags().String("namespace", imgcache.DefaultNamespace, "cache namespace; images live in <root>/.<namespace>/images")
	rootCmd.PersistentFlags().Int("concurrency", imgcache.DefaultConcurrency, "parallel workers for delete and verify")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	viper.BindPFlag("root", rootCmd.PersistentFlags().Lookup("root"))
	viper.BindPFlag("namespace", rootCmd.PersistentFlags().Lookup("namespace"))
	viper.BindPFlag("concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

func initConfig() {
	if cfg := rootCmd.PersistentFlags().Lookup("config").Value.String(); cfg != "" {
		viper.SetConfigFile(cfg)
	} else {
		for _, dir := range configDirs() {
			viper.AddConfigPath(dir)
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("IMGCACHE")
	viper.AutomaticEnv()
	viper.SetDefault("root", ".")
	viper.SetDefault("namespace", imgcache.DefaultNamespace)
	viper.SetDefault("concurrency", imgcache.DefaultConcurrency)
	viper.SetDefault("media_folder", "")

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			logger.Warn("could not read configuration file", "err", err)
		}
		return
	}
	logger.Debug("using configuration file", "path", viper.ConfigFileUsed())
}

func configDirs() []string {
	var dirs []string
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		dirs = append(dirs, filepath.Join(xdg, "imgcache"))
	}
	scoped, err := gap.NewScope(gap.User, "imgcache").ConfigDirs()
	if err != nil {
		logger.Debug("could not determine config directories", "err", err)
		return dirs
	}
	return append(dirs, scoped...)
}

// storageRoot expands ~ and makes the configured root absolute.
func storageRoot() (string, error) {
	root, err := homedir.Expand(viper.GetString("root"))
	if err != nil {
		return "", fmt.Errorf("expand root: %w", err)
	}
	if root == "" {
		root = "."
	}
	return filepath.Abs(root)
}

func openCache(extra ...imgcache.Option) (*imgcache.Cache, error) {
	root, err := storageRoot()
	if err != nil {
		return nil, err
	}
	opts := []imgcache.Option{
		imgcache.WithNamespace(viper.GetString("namespace")),
		imgcache.WithConcurrency(viper.GetInt("concurrency")),
		imgcache.WithLogger(logger),
	}
	return imgcache.New(imgcache.DirRoot(root), append(opts, extra...)...)
}
