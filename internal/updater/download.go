package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/djcass44/cef-packager/pkg/archiveutil"
	"github.com/djcass44/cef-packager/pkg/downloader"
	"github.com/djcass44/cef-packager/pkg/fileutil"
	"github.com/djcass44/cef-packager/pkg/lockfile"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

var ErrNoBuild = errors.New("no build available")

// SourceIgnore matches the parts of a packaging repository
// that never come from the upstream archive.
var SourceIgnore = fileutil.IgnorePatterns(DirDebian, ".pc", ".git*")

type DownloadOptions struct {
	// Force discards any cached download.
	Force bool
	// ForceExtract syncs the archive over the
	// packaging repository after downloading.
	ForceExtract bool
}

// Download fetches the archive of each package, strips any
// unwanted files and records the result in the lockfile. A
// failing package does not stop the others from being downloaded.
func (u *Updater) Download(ctx context.Context, pkgs []*Package, opts DownloadOptions) error {
	log := logr.FromContextOrDiscard(ctx)

	var errs []error
	for _, p := range pkgs {
		if err := u.download(ctx, p, opts); err != nil {
			log.Error(err, "failed to download package", "name", p.Config.Name)
			errs = append(errs, fmt.Errorf("downloading %s: %w", p.Config.Name, err))
		}
	}
	if err := u.saveLock(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (u *Updater) download(ctx context.Context, p *Package, opts DownloadOptions) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("name", p.Config.Name, "url", p.URL)

	if p.URL == "" {
		return fmt.Errorf("%w: no build of version %d on %s", ErrNoBuild, p.Config.Version, p.Site.Name)
	}

	dlOpts := downloader.Options{Force: opts.Force}
	locked, ok := u.lock.Get(p.Config.Name, p.URL)
	if ok && !opts.Force {
		dlOpts.Checksum = locked.Integrity
		dlOpts.SourceChecksum = locked.Upstream
	}

	dst, fetched, err := u.dl.Download(ctx, p.URL, p.Filename, dlOpts)
	if err != nil {
		return err
	}

	entry := lockfile.Package{
		Name:     p.Config.Name,
		Version:  p.LastBuild,
		Resolved: p.URL,
		Filename: p.Filename,
		Archive:  p.Site.Archive,
		Upstream: locked.Upstream,
		Tree:     locked.Tree,
	}
	// without a lock entry the cached file is all we
	// know about the upstream archive
	if fetched || !ok {
		entry.Upstream, err = downloader.Sha256(dst)
		if err != nil {
			return err
		}
	}
	if len(p.Config.DeleteFiles) > 0 {
		// a cached archive has already been stripped only if the
		// lockfile says so for the same list of files
		if fetched || !ok || !slices.Equal(locked.Stripped, p.Config.DeleteFiles) {
			if err := u.strip(ctx, p, dst); err != nil {
				return err
			}
		} else {
			log.V(1).Info("cached archive has already been stripped")
		}
		entry.Stripped = slices.Clone(p.Config.DeleteFiles)
	}
	entry.Integrity, err = downloader.Sha256(dst)
	if err != nil {
		return err
	}
	u.lock.Set(entry)
	log.Info("package is ready", "path", dst, "downloaded", fetched)

	if opts.ForceExtract {
		return u.forceExtract(ctx, p, dst)
	}
	return nil
}

// strip removes the configured files from a downloaded archive
// and writes it back in place.
func (u *Updater) strip(ctx context.Context, p *Package, archive string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("name", p.Config.Name, "archive", archive)

	kind := archiveutil.Kind(archive)
	if kind == "" || kind == archiveutil.ExtZip {
		log.Info("unable to remove files from archive of this type", "kind", kind)
		return nil
	}

	tmp := u.dl.Path(p.Dir() + ".tmp")
	if err := os.RemoveAll(tmp); err != nil {
		return err
	}
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			log.Error(err, "failed to remove temporary directory", "path", tmp)
		}
	}()

	prefix := p.Prefix()
	if err := archiveutil.Extract(ctx, archive, tmp, prefix); err != nil {
		return err
	}
	for _, f := range p.Config.DeleteFiles {
		target := filepath.Join(tmp, filepath.Clean("/"+f))
		log.V(1).Info("deleting file from archive", "path", f)
		if err := os.RemoveAll(target); err != nil {
			log.Error(err, "failed to delete file from archive", "path", f)
		}
	}
	log.Info("rebuilding archive", "prefix", prefix, "deleted", len(p.Config.DeleteFiles))
	return archiveutil.Archive(ctx, tmp, archive, prefix)
}

// forceExtract unpacks the archive and syncs it over the
// packaging repository so that files which are no longer
// shipped are removed.
func (u *Updater) forceExtract(ctx context.Context, p *Package, archive string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("name", p.Config.Name, "archive", archive)

	tmp := filepath.Join(u.dl.Dir(), ".extract-"+uuid.NewString())
	defer func() {
		if err := os.RemoveAll(tmp); err != nil {
			log.Error(err, "failed to remove temporary directory", "path", tmp)
		}
	}()
	if err := archiveutil.Extract(ctx, archive, tmp, p.Prefix()); err != nil {
		return err
	}
	repo := u.RepoDir(p)
	log.Info("syncing archive into repository", "repo", repo)
	return fileutil.Sync(ctx, tmp, repo, SourceIgnore)
}
