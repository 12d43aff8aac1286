package cmd

import (
	"github.com/djcass44/cef-packager/internal/updater"
	"github.com/spf13/cobra"
)

var downloadCmd = &cobra.Command{
	Use:   "download",
	Short: "download the latest build of each package",
	RunE:  download,
}

const (
	flagForce        = "force"
	flagForceExtract = "force-extract"
)

func init() {
	addPackageFlag(downloadCmd)
	addDownloadFlags(downloadCmd)
}

func addDownloadFlags(cmd *cobra.Command) {
	cmd.Flags().Bool(flagForce, false, "download archives even if they are already cached")
	cmd.Flags().Bool(flagForceExtract, false, "extract archives over the package repositories, removing files that are no longer shipped")
}

func downloadOptions(cmd *cobra.Command) updater.DownloadOptions {
	force, _ := cmd.Flags().GetBool(flagForce)
	forceExtract, _ := cmd.Flags().GetBool(flagForceExtract)
	return updater.DownloadOptions{
		Force:        force,
		ForceExtract: forceExtract,
	}
}

func download(cmd *cobra.Command, _ []string) error {
	u, pkgs, err := prepare(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	return withCode(1, u.Download(cmd.Context(), pkgs, downloadOptions(cmd)))
}
