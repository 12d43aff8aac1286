package cmd

import (
	"github.com/djcass44/cef-packager/internal/updater"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "download, update the package repositories and publish them",
	RunE:  update,
}

const (
	flagNoPublish    = "no-publish"
	flagUpload       = "upload"
	flagDistribution = "distribution"
)

const (
	codeDownload   = 3
	codeRepository = 4
	codePublish    = 5
)

func init() {
	addPackageFlag(updateCmd)
	addDownloadFlags(updateCmd)

	updateCmd.Flags().Bool(flagNoPublish, false, "skip running the publish command")
	updateCmd.Flags().Bool(flagUpload, false, "upload the source packages when publishing")
	updateCmd.Flags().String(flagDistribution, "", "distribution written to the changelog (defaults to the codename of this host)")
}

func update(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	noPublish, _ := cmd.Flags().GetBool(flagNoPublish)
	upload, _ := cmd.Flags().GetBool(flagUpload)
	distribution, _ := cmd.Flags().GetString(flagDistribution)

	u, pkgs, err := prepare(cmd.Context(), cmd)
	if err != nil {
		return err
	}

	if err := u.Download(cmd.Context(), pkgs, downloadOptions(cmd)); err != nil {
		return withCode(codeDownload, err)
	}
	if err := u.UpdateRepositories(cmd.Context(), pkgs, updater.UpdateOptions{Distribution: distribution}); err != nil {
		return withCode(codeRepository, err)
	}
	if noPublish {
		log.Info("skipping publish")
		return nil
	}
	return withCode(codePublish, u.Publish(cmd.Context(), pkgs, upload))
}
