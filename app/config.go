package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/portcullis-admin/portcullis/internal/config"
)

const (
	formatTOML = "toml"
	formatJSON = "json"
)

func init() { //nolint: gochecknoinits
	dumpCmd.Flags().StringVar(&configFormat, "format", formatTOML, "output format, toml or json")

	configCmd.AddCommand(dumpCmd)
	rootCmd.AddCommand(configCmd)
}

var (
	configFormat string

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Configuration commands",
	}

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults and the ` + config.EnvConfigJSON + `
override were applied.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig()
			if err != nil {
				return err
			}

			var out string

			switch configFormat {
			case formatTOML:
				out, err = config.DumpConfig(&cfg)
			case formatJSON:
				out, err = config.DumpConfigJSON(&cfg)
			default:
				return fmt.Errorf("unknown format %q", configFormat) //nolint:err113
			}

			if err != nil {
				return err //nolint:wrapcheck
			}

			fmt.Fprint(cmd.OutOrStdout(), out)

			return nil
		},
	}
)
