package v1

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const (
	DefaultMinMajor       = 3
	DefaultSourceName     = "cef${version}"
	DefaultVersionFile    = "include/cef_version.h"
	DefaultVersionPattern = `#define CEF_VERSION\s*['"]([a-zA-Z0-9\.+-]+)['"]`
	DefaultPublishCommand = "ppa_publish"
	DefaultNoUploadFlag   = "--noput"
	DefaultABIKey         = "cef:ABI"
)

// SetDefaults fills in any optional values that were
// left empty in the configuration file.
func (s *BuildSpec) SetDefaults() {
	for i := range s.Sites {
		if s.Sites[i].MinMajor == nil {
			v := DefaultMinMajor
			s.Sites[i].MinMajor = &v
		}
	}
	for i := range s.Packages {
		p := &s.Packages[i]
		if p.DebianRevision == "" {
			p.DebianRevision = RevisionMajor
		}
		if p.SourceName == "" {
			p.SourceName = DefaultSourceName
		}
		if p.VersionFile == "" {
			p.VersionFile = DefaultVersionFile
		}
		if p.VersionPattern == "" {
			p.VersionPattern = DefaultVersionPattern
		}
		if len(p.Values) == 0 {
			p.Values = map[string]string{DefaultABIKey: "${version}"}
		}
	}
	if s.Publish.Command == "" {
		s.Publish.Command = DefaultPublishCommand
	}
	if s.Publish.NoUploadFlag == "" {
		s.Publish.NoUploadFlag = DefaultNoUploadFlag
	}
}

// Validate checks that the configuration is internally
// consistent. It expects SetDefaults to have been called.
func (s *BuildSpec) Validate() error {
	var errs []error
	sites := map[string]bool{}
	for _, site := range s.Sites {
		if site.Name == "" {
			errs = append(errs, errors.New("site is missing a name"))
			continue
		}
		if sites[site.Name] {
			errs = append(errs, fmt.Errorf("duplicate site: %s", site.Name))
		}
		sites[site.Name] = true
	}

	names := map[string]bool{}
	for _, p := range s.Packages {
		if p.Name == "" {
			errs = append(errs, errors.New("package is missing a name"))
			continue
		}
		for _, n := range []string{p.Name, p.Alias} {
			if n == "" {
				continue
			}
			key := strings.ToLower(n)
			if names[key] {
				errs = append(errs, fmt.Errorf("duplicate package name or alias: %s", n))
			}
			names[key] = true
		}
		if !sites[p.Site] {
			errs = append(errs, fmt.Errorf("package %s references unknown site: %s", p.Name, p.Site))
		}
		if p.Version <= 0 {
			errs = append(errs, fmt.Errorf("package %s has an invalid version: %d", p.Name, p.Version))
		}
		if p.DebianRevision != RevisionMajor && p.DebianRevision != RevisionMinor {
			errs = append(errs, fmt.Errorf("package %s has an unknown debian revision strategy: %s", p.Name, p.DebianRevision))
		}
		re, err := regexp.Compile(p.VersionPattern)
		if err != nil {
			errs = append(errs, fmt.Errorf("package %s has an invalid version pattern: %w", p.Name, err))
		} else if re.NumSubexp() < 1 {
			errs = append(errs, fmt.Errorf("package %s version pattern needs a capture group", p.Name))
		}
	}
	return errors.Join(errs...)
}

// GetSite returns the site with the given name or nil.
func (s *BuildSpec) GetSite(name string) *Site {
	for i := range s.Sites {
		if s.Sites[i].Name == name {
			return &s.Sites[i]
		}
	}
	return nil
}
