package updater

import (
	"fmt"
	"io"
	"slices"
	"strings"

	v1 "github.com/djcass44/cef-packager/pkg/api/v1"
	"golang.org/x/exp/maps"
)

const (
	LockMissing  = "not locked"
	LockCurrent  = "locked"
	LockOutdated = "outdated"
)

// LockState describes how a resolved package compares
// to what was last recorded in the lockfile.
func (u *Updater) LockState(p *Package) string {
	entry, ok := u.lock.Packages[p.Config.Name]
	switch {
	case !ok:
		return LockMissing
	case entry.Resolved == p.URL && entry.Version == p.LastBuild:
		return LockCurrent
	default:
		return LockOutdated
	}
}

// List writes the configured sites followed by each
// resolved package.
func (u *Updater) List(w io.Writer, pkgs []*Package) error {
	sites := map[string]v1.Site{}
	for _, s := range u.cfg.Sites {
		sites[s.Name] = s
	}
	names := maps.Keys(sites)
	slices.Sort(names)

	if _, err := fmt.Fprintln(w, "Sites:"); err != nil {
		return err
	}
	for _, n := range names {
		s := sites[n]
		if _, err := fmt.Fprintf(w, "  %s: %s\n", s.Name, s.Index); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "    download: %s\n", s.Download); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintln(w, "Packages:"); err != nil {
		return err
	}
	for _, p := range pkgs {
		name := p.Config.Name
		if p.Config.Alias != "" {
			name = fmt.Sprintf("%s (%s)", p.Config.Name, p.Config.Alias)
		}
		lastBuild := p.LastBuild
		if lastBuild == "" {
			lastBuild = "none"
		}
		lines := []string{
			fmt.Sprintf("  %s: version %d, site %s", name, p.Config.Version, p.Site.Name),
			fmt.Sprintf("    last build: %s (%d available)", lastBuild, len(p.Builds)),
			fmt.Sprintf("    url: %s", p.URL),
			fmt.Sprintf("    lock: %s", u.LockState(p)),
		}
		if _, err := fmt.Fprintln(w, strings.Join(lines, "\n")); err != nil {
			return err
		}
	}
	return nil
}
