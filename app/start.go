package app

import (
	"github.com/spf13/cobra"

	"github.com/portcullis-admin/portcullis/internal/daemon"
	"github.com/portcullis-admin/portcullis/internal/logger"
)

func init() { //nolint: gochecknoinits
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the Portcullis web service",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := readConfig()
		if err != nil {
			return err
		}

		if err = logger.Init(cfg.Log); err != nil {
			return err //nolint:wrapcheck
		}

		d, err := daemon.New(&cfg)
		if err != nil {
			return err //nolint:wrapcheck
		}

		return d.Run() //nolint:wrapcheck
	},
}
