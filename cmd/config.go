package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/djcass44/cef-packager/internal/updater"
	"github.com/djcass44/cef-packager/pkg/airutil"
	v1 "github.com/djcass44/cef-packager/pkg/api/v1"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/util/yaml"
)

const flagPackage = "package"

func addPackageFlag(cmd *cobra.Command) {
	cmd.Flags().StringSliceP(flagPackage, "p", nil, "names or aliases of the packages to work on (defaults to all)")
}

func readConfig(s string) (v1.Build, error) {
	f, err := os.Open(s)
	if err != nil {
		return v1.Build{}, err
	}
	defer f.Close()

	var config v1.Build
	if err := yaml.NewYAMLOrJSONDecoder(f, 4).Decode(&config); err != nil {
		return v1.Build{}, err
	}
	config.Spec.SetDefaults()
	// download templates are expanded per build, so only
	// the values that are used verbatim see the environment
	config.Spec.Publish.Command = airutil.ExpandEnv(config.Spec.Publish.Command)
	for i := range config.Spec.Packages {
		config.Spec.Packages[i].Git = airutil.ExpandEnv(config.Spec.Packages[i].Git)
	}
	if err := config.Spec.Validate(); err != nil {
		return v1.Build{}, fmt.Errorf("invalid configuration %s: %w", s, err)
	}
	return config, nil
}

// prepare reads the configuration and resolves the
// packages selected on the command line.
func prepare(ctx context.Context, cmd *cobra.Command) (*updater.Updater, []*updater.Package, error) {
	log := logr.FromContextOrDiscard(ctx)

	configPath, _ := cmd.Flags().GetString(flagConfig)
	names, _ := cmd.Flags().GetStringSlice(flagPackage)

	// read the config file
	cfg, err := readConfig(configPath)
	if err != nil {
		return nil, nil, withCode(1, err)
	}
	log.V(1).Info("loaded configuration", "path", configPath, "name", cfg.Name, "sites", len(cfg.Spec.Sites), "packages", len(cfg.Spec.Packages))

	u, err := updater.New(ctx, configPath, cfg.Spec)
	if err != nil {
		return nil, nil, withCode(1, err)
	}
	selected, err := u.Select(ctx, names)
	if err != nil {
		return nil, nil, withCode(1, err)
	}
	if err := u.Lock().Validate(cfg.Spec); err != nil {
		log.V(1).Info("lockfile does not match the configuration", "reason", err.Error())
	}
	pkgs, err := u.Resolve(ctx, selected)
	if err != nil {
		return nil, nil, withCode(1, err)
	}
	return u, pkgs, nil
}
