package linuxutil

import (
	"context"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"gopkg.in/ini.v1"
)

const (
	LsbRelease = "/etc/lsb-release"

	DefaultDistribution = "unstable"
)

// Distribution reads the release codename (DISTRIB_CODENAME) from
// an lsb-release file. If the file is missing or does not contain a
// codename, the fallback is returned.
func Distribution(ctx context.Context, path, fallback string) string {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path)

	if _, err := os.Stat(path); err != nil {
		log.V(1).Info("unable to find release file, using fallback", "fallback", fallback)
		return fallback
	}
	cfg, err := ini.Load(path)
	if err != nil {
		log.Error(err, "failed to read release file")
		return fallback
	}
	codename := strings.TrimSpace(cfg.Section("").Key("DISTRIB_CODENAME").String())
	if codename == "" {
		log.V(1).Info("release file has no codename, using fallback", "fallback", fallback)
		return fallback
	}
	log.V(2).Info("detected distribution", "codename", codename)
	return codename
}
