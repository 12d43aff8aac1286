package updater

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/djcass44/cef-packager/pkg/airutil"
	v1 "github.com/djcass44/cef-packager/pkg/api/v1"
	"github.com/djcass44/cef-packager/pkg/buildindex"
	"github.com/go-logr/logr"
)

// Package is a configured package after its latest
// build has been looked up.
type Package struct {
	Config v1.Package
	Site   v1.Site

	// LastBuild is the newest build on the index for
	// the package's major version.
	LastBuild string
	Builds    []string

	URL        string
	Filename   string
	SourceName string
	Values     map[string]string
}

// Dir is the name of the package's directory
// within the repository directory.
func (p *Package) Dir() string {
	return strings.ToLower(p.Config.Name)
}

// Prefix is the top-level directory inside the archive.
func (p *Package) Prefix() string {
	if p.Site.Archive == "" {
		return strings.TrimSuffix(p.Filename, path.Ext(p.Filename))
	}
	return strings.TrimSuffix(p.Filename, "."+p.Site.Archive)
}

// OrigFilename is the name of the orig tarball that
// dpkg-source expects next to the repository.
func (p *Package) OrigFilename() string {
	build := p.LastBuild
	if build == "" {
		build = strconv.Itoa(p.Config.Version)
	}
	archive := p.Site.Archive
	if archive == "" {
		archive = strings.TrimPrefix(path.Ext(p.Filename), ".")
	}
	return fmt.Sprintf("%s_%s.orig.%s", p.SourceName, build, archive)
}

// Resolve looks up the latest build of each package. Every
// site's index is only fetched once.
func (u *Updater) Resolve(ctx context.Context, pkgs []v1.Package) ([]*Package, error) {
	log := logr.FromContextOrDiscard(ctx)

	indices := map[string][]buildindex.Build{}
	var out []*Package
	for _, p := range pkgs {
		site := u.cfg.GetSite(p.Site)
		if site == nil {
			return nil, fmt.Errorf("package %s references unknown site: %s", p.Name, p.Site)
		}
		builds, ok := indices[site.Name]
		if !ok && site.Index != "" {
			var err error
			builds, err = buildindex.Fetch(ctx, site.Index, site.Platform, minMajor(site))
			if err != nil {
				return nil, err
			}
			indices[site.Name] = builds
		}
		rp, err := resolve(p, *site, builds)
		if err != nil {
			return nil, err
		}
		log.V(1).Info("resolved package", "name", p.Name, "lastBuild", rp.LastBuild, "url", rp.URL, "filename", rp.Filename)
		out = append(out, rp)
	}
	return out, nil
}

func resolve(p v1.Package, site v1.Site, builds []buildindex.Build) (*Package, error) {
	lastBuild, matches := buildindex.Latest(builds, p.Version)

	values := map[string]string{
		"name":     p.Name,
		"version":  strconv.Itoa(p.Version),
		"platform": site.Platform,
		"archive":  site.Archive,
	}
	if lastBuild != "" {
		values["last_build"] = lastBuild
	}

	rp := &Package{
		Config:    p,
		Site:      site,
		LastBuild: lastBuild,
		Builds:    matches,
		Values:    map[string]string{},
	}

	// a url can only be built once we know which
	// build we're after
	if site.Download != "" && (lastBuild != "" || !strings.Contains(site.Download, "last_build")) {
		u, err := airutil.ExpandURL(site.Download, values)
		if err != nil {
			return nil, fmt.Errorf("expanding download url of %s: %w", p.Name, err)
		}
		rp.URL = u
	}
	rp.Filename = filename(rp)

	var err error
	rp.SourceName, err = airutil.Expand(p.SourceName, values)
	if err != nil {
		return nil, fmt.Errorf("expanding source name of %s: %w", p.Name, err)
	}
	for k, v := range p.Values {
		rp.Values[k], err = airutil.Expand(v, values)
		if err != nil {
			return nil, fmt.Errorf("expanding value %s of %s: %w", k, p.Name, err)
		}
	}
	return rp, nil
}

func filename(p *Package) string {
	if p.URL != "" {
		uri, err := url.Parse(p.URL)
		if err == nil {
			if base, err := url.PathUnescape(path.Base(uri.EscapedPath())); err == nil && base != "/" && base != "." {
				return base
			}
		}
	}
	name := strings.ToLower(p.Config.Name)
	switch {
	case p.Site.Archive == "":
		return name + ".zip"
	case p.LastBuild != "":
		return fmt.Sprintf("%s_%s.%s", name, p.LastBuild, p.Site.Archive)
	default:
		return fmt.Sprintf("%s_%d.%s", name, p.Config.Version, p.Site.Archive)
	}
}

func minMajor(site *v1.Site) int {
	if site.MinMajor == nil {
		return v1.DefaultMinMajor
	}
	return *site.MinMajor
}
