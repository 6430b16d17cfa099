// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/portcullis-admin/portcullis/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "portcullis",
	Short: "Portcullis is a group based access control service",
	Long: `Portcullis keeps users, groups and per-module rules and decides
whether a user may run an action of a module. It ships a JSON admin API
to manage them and an access endpoint for other services.`,
	Args:          cobra.OnlyValidArgs,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var (
	configPath string // directory holding main.toml
	devMode    bool
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "./etc/", "directory of main.toml")
	rootCmd.PersistentFlags().BoolVar(&devMode, "dev", false, "Enable dev mode")
}

// readConfig reads the configuration and applies the command line overrides.
func readConfig() (config.Config, error) {
	cfg, err := config.ReadConfig(configPath)
	if err != nil {
		return cfg, err //nolint:wrapcheck
	}

	if devMode {
		cfg.DevMode = true
	}

	return cfg, nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
