package fileutil

import "path/filepath"

// IgnoreFunc reports whether a file or directory with the
// given base name should be skipped.
type IgnoreFunc func(name string) bool

// IgnorePatterns returns an IgnoreFunc that matches base
// names against shell patterns (e.g. ".git*").
func IgnorePatterns(patterns ...string) IgnoreFunc {
	return func(name string) bool {
		for _, p := range patterns {
			if ok, _ := filepath.Match(p, name); ok {
				return true
			}
		}
		return false
	}
}

func (f IgnoreFunc) matches(name string) bool {
	if f == nil {
		return false
	}
	return f(name)
}
