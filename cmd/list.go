package cmd

import (
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "list sites and the latest build of each package",
	RunE:  list,
}

func init() {
	addPackageFlag(listCmd)
}

func list(cmd *cobra.Command, _ []string) error {
	u, pkgs, err := prepare(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	return u.List(cmd.OutOrStdout(), pkgs)
}
