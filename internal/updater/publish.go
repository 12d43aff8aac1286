package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-logr/logr"
)

// Publish runs the publish command inside the repository of each
// package. The no-upload flag is passed unless upload is set.
// Packages without a repository have nothing to publish and
// are skipped.
func (u *Updater) Publish(ctx context.Context, pkgs []*Package, upload bool) error {
	log := logr.FromContextOrDiscard(ctx)

	var errs []error
	for _, p := range pkgs {
		repo := u.RepoDir(p)
		if !exists(repo) {
			log.Info("skipping package without a repository", "name", p.Config.Name, "repo", repo)
			continue
		}
		if err := u.runner.Run(ctx, repo, upload); err != nil {
			log.Error(err, "failed to publish package", "name", p.Config.Name)
			errs = append(errs, fmt.Errorf("publishing %s: %w", p.Config.Name, err))
		}
	}
	return errors.Join(errs...)
}
