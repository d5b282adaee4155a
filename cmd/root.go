// Package cmd holds the unimap command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/unimap/unimap/config"
	"github.com/unimap/unimap/utils"
)

// RootCommand creates and returns the root command.
func RootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "unimap",
		Short:         "Campus navigation server",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigPath, "path to the JSON config file")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		config.DefaultConfigPath = configPath
		return utils.InitLogger(config.Load())
	}

	rootCmd.AddCommand(
		serveCommand(),
		createAdminCommand(),
		seedDemoCommand(),
	)
	return rootCmd
}
