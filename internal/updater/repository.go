package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/djcass44/cef-packager/pkg/archiveutil"
	"github.com/djcass44/cef-packager/pkg/debian"
	"github.com/djcass44/cef-packager/pkg/fileutil"
	"github.com/djcass44/cef-packager/pkg/linuxutil"
	"github.com/go-logr/logr"
	"github.com/gosimple/hashdir"
	"github.com/hashicorp/go-getter"
)

var ErrMissingDownload = errors.New("download is missing")

// TemplateIgnore matches the files in the packaging template
// that are owned by the repository instead.
var TemplateIgnore = fileutil.IgnorePatterns("changelog", ".git*")

type UpdateOptions struct {
	// Distribution is written into the changelog. When empty it
	// is read from the release file of the host.
	Distribution string
}

// UpdateRepositories brings the packaging repository of each
// package up to date with its downloaded archive and adds a
// changelog entry for the new upstream version.
func (u *Updater) UpdateRepositories(ctx context.Context, pkgs []*Package, opts UpdateOptions) error {
	log := logr.FromContextOrDiscard(ctx)

	dist := opts.Distribution
	if dist == "" {
		release := u.LsbRelease
		if release == "" {
			release = linuxutil.LsbRelease
		}
		dist = linuxutil.Distribution(ctx, release, linuxutil.DefaultDistribution)
	}
	log.V(1).Info("using distribution", "distribution", dist)

	var errs []error
	for _, p := range pkgs {
		if err := u.updateRepository(ctx, p, dist); err != nil {
			log.Error(err, "failed to update repository", "name", p.Config.Name)
			errs = append(errs, fmt.Errorf("updating repository of %s: %w", p.Config.Name, err))
		}
	}
	if err := u.saveLock(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (u *Updater) updateRepository(ctx context.Context, p *Package, dist string) error {
	repo := u.RepoDir(p)
	log := logr.FromContextOrDiscard(ctx).WithValues("name", p.Config.Name, "repo", repo)

	if err := u.ensureRepository(ctx, p, repo); err != nil {
		return err
	}

	debianDir := filepath.Join(repo, DirDebian)
	template := filepath.Join(u.workDir, DirDebian)
	if exists(template) {
		if err := fileutil.Configure(ctx, template, debianDir, p.Values, TemplateIgnore); err != nil {
			return fmt.Errorf("configuring packaging template: %w", err)
		}
	} else {
		log.Info("no packaging template found, using the repository as-is", "template", template)
	}

	archive := u.dl.Path(p.Filename)
	if !exists(archive) {
		return fmt.Errorf("%w: %s", ErrMissingDownload, archive)
	}

	format, err := debian.ReadSourceFormat(ctx, debianDir)
	if err != nil {
		return err
	}
	if format.Native() {
		log.Info("native source package does not need an orig archive", "format", format.String())
	} else if err := u.prepareOrig(ctx, p, archive, repo); err != nil {
		return err
	}

	pc := filepath.Join(repo, ".pc")
	if exists(pc) {
		log.V(1).Info("removing quilt state", "path", pc)
		if err := os.RemoveAll(pc); err != nil {
			return err
		}
	}

	re, err := regexp.Compile(p.Config.VersionPattern)
	if err != nil {
		return err
	}
	upstream, err := debian.ReadUpstreamVersion(filepath.Join(repo, p.Config.VersionFile), re)
	if err != nil {
		return err
	}
	log.Info("found upstream version", "version", upstream)

	if name, err := debian.ReadSourceName(debianDir); err != nil {
		log.V(1).Info("unable to read source name from control file", "error", err.Error())
	} else if name != p.SourceName {
		log.Info("source name in control file does not match the configuration", "control", name, "expected", p.SourceName)
	}

	if err := os.MkdirAll(debianDir, 0755); err != nil {
		return err
	}
	maintainer, email := linuxutil.Maintainer()
	v, err := debian.UpdateChangelog(ctx, filepath.Join(debianDir, "changelog"), debian.Update{
		Source:       p.SourceName,
		Upstream:     upstream,
		Distribution: dist,
		Strategy:     p.Config.DebianRevision,
		Message:      "Automatic update " + upstream,
		Maintainer:   maintainer,
		Email:        email,
	})
	if err != nil {
		return err
	}

	digest, err := hashdir.Make(repo, "sha256")
	if err != nil {
		log.Error(err, "failed to generate repository digest", "alg", "sha256")
		return err
	}
	if entry, ok := u.lock.Packages[p.Config.Name]; ok {
		entry.Name = p.Config.Name
		entry.Tree = "sha256:" + digest
		u.lock.Set(entry)
	}
	log.Info("updated repository", "version", v.String())
	return nil
}

// ensureRepository clones (or updates) the packaging repository
// when it comes from git, otherwise it makes sure the directory
// exists.
func (u *Updater) ensureRepository(ctx context.Context, p *Package, repo string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("repo", repo)
	if p.Config.Git == "" {
		return os.MkdirAll(repo, 0755)
	}
	log.Info("fetching packaging repository", "src", p.Config.Git)
	client := &getter.Client{
		Ctx:  ctx,
		Src:  p.Config.Git,
		Dst:  repo,
		Pwd:  u.workDir,
		Mode: getter.ClientModeDir,
	}
	if err := client.Get(); err != nil {
		return fmt.Errorf("fetching packaging repository: %w", err)
	}
	return nil
}

// prepareOrig copies the download to the orig archive the first
// time a build is seen and unpacks it into the repository.
func (u *Updater) prepareOrig(ctx context.Context, p *Package, archive, repo string) error {
	orig := filepath.Join(filepath.Dir(repo), p.OrigFilename())
	log := logr.FromContextOrDiscard(ctx).WithValues("orig", orig)

	if exists(orig) {
		log.V(1).Info("orig archive already exists")
		return nil
	}
	log.Info("creating orig archive", "src", archive)
	if err := fileutil.CopyFile(archive, orig); err != nil {
		return fmt.Errorf("copying %s to %s: %w", archive, orig, err)
	}
	if err := archiveutil.Extract(ctx, orig, repo, p.Prefix()); err != nil {
		// try again next time
		_ = os.Remove(orig)
		return err
	}
	return nil
}
