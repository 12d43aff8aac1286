package lockfile

import (
	"errors"
	"fmt"
	"sort"

	v1 "github.com/djcass44/cef-packager/pkg/api/v1"
)

func New(name string) *Lock {
	return &Lock{
		Name:            name,
		LockfileVersion: LockfileVersion,
		Packages:        map[string]Package{},
	}
}

// Validate checks that the configuration file lines up
// with what we expect from the lockfile and vice versa
func (l *Lock) Validate(cfg v1.BuildSpec) error {
	var errs []error
	// check that the enabled packages are all in the lockfile
	for _, p := range cfg.Packages {
		if p.Disable {
			continue
		}
		if _, ok := l.Packages[p.Name]; !ok {
			errs = append(errs, fmt.Errorf("package not found in lock: %s", p.Name))
		}
	}

	// now we do the reverse
	for _, k := range l.SortedKeys() {
		var found bool
		for _, p := range cfg.Packages {
			if p.Name == k {
				found = true
				break
			}
		}
		if !found {
			errs = append(errs, fmt.Errorf("package found in lock, but not configuration: %s", k))
		}
	}

	return errors.Join(errs...)
}

// Get returns the locked package if it was
// resolved from the same url.
func (l *Lock) Get(name, resolved string) (Package, bool) {
	p, ok := l.Packages[name]
	if !ok || p.Resolved != resolved {
		return Package{}, false
	}
	p.Name = name
	return p, true
}

func (l *Lock) Set(p Package) {
	if l.Packages == nil {
		l.Packages = map[string]Package{}
	}
	l.Packages[p.Name] = p
}

// SortedKeys returns package names
// sorted alphabetically.
func (l *Lock) SortedKeys() []string {
	pkgKeys := make([]string, 0)
	for k := range l.Packages {
		pkgKeys = append(pkgKeys, k)
	}
	sort.Strings(pkgKeys)
	return pkgKeys
}
