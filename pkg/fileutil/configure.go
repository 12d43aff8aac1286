package fileutil

import (
	"bufio"
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-logr/logr"
)

const (
	delimStart = "${"
	delimStop  = "}"
)

// Subst replaces ${key} references in s with their value. When
// keepUnknown is set, references to unknown (or empty) keys are
// left as they are so that shell and make variables survive,
// otherwise they are replaced with an empty string. The boolean
// reports whether anything was replaced.
func Subst(s string, values map[string]string, keepUnknown bool) (string, bool) {
	var changed bool
	i := 0
	for {
		start := strings.Index(s[i:], delimStart)
		if start < 0 {
			return s, changed
		}
		start += i
		end := strings.Index(s[start:], delimStop)
		if end < 0 {
			return s, changed
		}
		end += start

		key := s[start+len(delimStart) : end]
		replacement := values[key]

		if !keepUnknown || replacement != "" {
			s = s[:start] + replacement + s[end+len(delimStop):]
			changed = true
			i = start + len(replacement)
		} else {
			i = end + len(delimStop)
		}
	}
}

// ConfigureFile copies src to dst, substituting values line by
// line. Lines without a known reference are copied untouched.
func ConfigureFile(src, dst string, values map[string]string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	out := bytes.Buffer{}
	r := bufio.NewReader(bytes.NewReader(data))
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if configured, ok := Subst(line, values, true); ok {
				out.WriteString(configured)
			} else {
				out.WriteString(line)
			}
		}
		if err != nil {
			break
		}
	}

	if err := os.WriteFile(dst, out.Bytes(), info.Mode().Perm()); err != nil {
		return err
	}
	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}

// Configure copies a template directory into dst, running every
// file through ConfigureFile. File names may also contain
// references, unknown ones are dropped from names.
func Configure(ctx context.Context, src, dst string, values map[string]string, ignore IgnoreFunc) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src, "dst", dst)
	log.V(1).Info("configuring template directory")

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel != "." && ignore.matches(d.Name()) {
			log.V(3).Info("skipping ignored file", "path", rel)
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			return os.MkdirAll(target, info.Mode().Perm()|0700)
		}
		dir, base := filepath.Split(target)
		if configured, ok := Subst(base, values, false); ok {
			target = filepath.Join(dir, configured)
		}
		if d.Type()&fs.ModeSymlink != 0 {
			info, err := os.Stat(path)
			if err != nil || info.IsDir() {
				log.Info("skipping symlink in template", "path", rel)
				return nil
			}
		}
		log.V(4).Info("configuring file", "path", rel, "target", target)
		return ConfigureFile(path, target, values)
	})
}
