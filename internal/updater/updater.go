package updater

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	v1 "github.com/djcass44/cef-packager/pkg/api/v1"
	"github.com/djcass44/cef-packager/pkg/downloader"
	"github.com/djcass44/cef-packager/pkg/lockfile"
	"github.com/djcass44/cef-packager/pkg/publish"
	"github.com/go-logr/logr"
)

const (
	DirDownload = "download"
	DirRepo     = "repo"
	DirDebian   = "debian"
)

var ErrUnknownPackage = errors.New("unknown package")

// Updater drives a set of packages through the download,
// repository update and publish steps. Everything happens
// relative to the directory containing the configuration file.
type Updater struct {
	cfg        v1.BuildSpec
	configPath string
	workDir    string

	dl     *downloader.Downloader
	lock   *lockfile.Lock
	runner *publish.Runner

	// LsbRelease is the file the default distribution
	// is read from.
	LsbRelease string
}

// New prepares an Updater. The configuration is expected
// to have been defaulted and validated.
func New(ctx context.Context, configPath string, cfg v1.BuildSpec) (*Updater, error) {
	log := logr.FromContextOrDiscard(ctx)

	configPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, err
	}
	workDir := filepath.Dir(configPath)
	log.V(1).Info("using working directory", "dir", workDir)

	dl, err := downloader.NewDownloader(filepath.Join(workDir, DirDownload))
	if err != nil {
		return nil, fmt.Errorf("preparing download directory: %w", err)
	}
	lock, err := lockfile.Read(ctx, configPath)
	if err != nil {
		return nil, fmt.Errorf("reading lockfile: %w", err)
	}
	runner, err := publish.NewRunner(cfg.Publish.Command, cfg.Publish.NoUploadFlag)
	if err != nil {
		return nil, err
	}
	return &Updater{
		cfg:        cfg,
		configPath: configPath,
		workDir:    workDir,
		dl:         dl,
		lock:       lock,
		runner:     runner,
	}, nil
}

// RepoDir returns the packaging repository of a package.
func (u *Updater) RepoDir(p *Package) string {
	return filepath.Join(u.workDir, DirRepo, p.Dir())
}

// Lock returns the lockfile as it currently stands.
func (u *Updater) Lock() *lockfile.Lock {
	return u.lock
}

// Select returns the packages matching the given names or
// aliases in configuration order. Names are not case-sensitive
// and no names means every package. Disabled packages are
// never selected.
func (u *Updater) Select(ctx context.Context, names []string) ([]v1.Package, error) {
	log := logr.FromContextOrDiscard(ctx)

	wanted := map[string]bool{}
	for _, n := range names {
		wanted[strings.ToLower(n)] = false
	}

	var out []v1.Package
	for _, p := range u.cfg.Packages {
		selected := len(names) == 0
		for _, n := range []string{p.Name, p.Alias} {
			key := strings.ToLower(n)
			if _, ok := wanted[key]; ok && n != "" {
				wanted[key] = true
				selected = true
			}
		}
		if !selected {
			continue
		}
		if p.Disable {
			log.Info("skipping disabled package", "name", p.Name)
			continue
		}
		out = append(out, p)
	}

	var errs []error
	for _, n := range names {
		if !wanted[strings.ToLower(n)] {
			log.Info("package is not in the configuration", "name", n)
			errs = append(errs, fmt.Errorf("%w: %s", ErrUnknownPackage, n))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func (u *Updater) saveLock(ctx context.Context) error {
	return lockfile.Write(ctx, u.configPath, u.lock)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
