package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/djcass44/cef-packager/internal/updater"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Removes all downloaded archives",
	RunE:  clean,
}

const (
	flagCacheDir = "cache-dir"
	flagConfig   = "config"
)

func init() {
	cleanCmd.Flags().String(flagCacheDir, "", "cache directory (defaults to the download directory next to the configuration file)")
	_ = cleanCmd.MarkFlagDirname(flagCacheDir)
}

func clean(cmd *cobra.Command, _ []string) error {
	log := logr.FromContextOrDiscard(cmd.Context())

	cacheDir, _ := cmd.Flags().GetString(flagCacheDir)
	configPath, _ := cmd.Flags().GetString(flagConfig)
	cacheDir, err := getCacheDir(cacheDir, configPath)
	if err != nil {
		return err
	}

	log.Info("deleting cache dir", "dir", cacheDir)

	if err := os.RemoveAll(cacheDir); err != nil {
		return fmt.Errorf("removing cache dir: %w", err)
	}
	return nil
}

func getCacheDir(d, configPath string) (string, error) {
	if d == "" {
		if configPath == "" {
			return "", fmt.Errorf("either --%s or --%s must be set", flagCacheDir, flagConfig)
		}
		abs, err := filepath.Abs(configPath)
		if err != nil {
			return "", err
		}
		d = filepath.Join(filepath.Dir(abs), updater.DirDownload)
	}
	return filepath.Clean(d), nil
}
