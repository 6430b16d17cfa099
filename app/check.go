package app

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"

	"github.com/portcullis-admin/portcullis/internal/acl"
	"github.com/portcullis-admin/portcullis/internal/db"
)

// ErrAccessDenied makes check exit non-zero on a deny.
var ErrAccessDenied = errors.New("access denied")

func init() { //nolint: gochecknoinits
	checkCmd.Flags().StringVar(&checkUsername, "username", "", "user to check")
	checkCmd.Flags().StringVar(&checkModule, "module", "", "module name")
	checkCmd.Flags().StringVar(&checkAction, "action", "", "action, empty for full-module access")

	_ = checkCmd.MarkFlagRequired("username")
	_ = checkCmd.MarkFlagRequired("module")

	rootCmd.AddCommand(checkCmd)
}

var (
	checkUsername string
	checkModule   string
	checkAction   string

	checkCmd = &cobra.Command{
		Use:   "check",
		Short: "Decide whether a user may run an action of a module",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := readConfig()
			if err != nil {
				return err
			}

			conn, err := db.Open(cfg.DB)
			if err != nil {
				return err //nolint:wrapcheck
			}

			user, err := acl.NewUsers(conn, validator.New()).GetByUsername(checkUsername)
			if err != nil {
				return err //nolint:wrapcheck
			}

			decision, err := acl.NewEngine(conn).Authorize(user, checkModule, checkAction)
			if err != nil {
				return err //nolint:wrapcheck
			}

			route := acl.Route{Module: checkModule, Action: checkAction}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s\n", user.Username, route.Path(), decision)

			if decision == acl.Deny {
				return ErrAccessDenied
			}

			return nil
		},
	}
)
