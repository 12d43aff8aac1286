package archiveutil

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
)

// Untar expands a tar archive into the given path. If prefix is
// set, only entries beneath the prefix are extracted and the prefix
// is removed from their names.
func Untar(ctx context.Context, r io.Reader, path, prefix string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path, "prefix", prefix)
	tr := tar.NewReader(r)

	type dirInfo struct {
		target  string
		mode    os.FileMode
		modTime time.Time
	}
	var dirs []dirInfo

	if err := os.MkdirAll(path, 0755); err != nil {
		return err
	}

	for {
		header, err := tr.Next()
		switch {
		case err == io.EOF:
			// directories are created with a permissive mode so that
			// we can write into them. Now that we're done, give them
			// their real mode starting from the deepest
			sort.Slice(dirs, func(i, j int) bool {
				return dirs[i].target > dirs[j].target
			})
			for _, d := range dirs {
				if err := os.Chmod(d.target, d.mode); err != nil {
					log.Error(err, "failed to update directory permissions", "target", d.target)
					return err
				}
				_ = os.Chtimes(d.target, d.modTime, d.modTime)
			}
			return nil
		case err != nil:
			log.Error(err, "failed to read file from archive")
			return err
		case header == nil:
			continue
		}

		name, ok := stripPrefix(header.Name, prefix)
		if !ok {
			log.V(6).Info("skipping file outside of prefix", "name", header.Name)
			continue
		}
		target, err := secureJoin(path, name)
		if err != nil {
			log.Error(err, "refusing to extract file", "name", header.Name)
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			log.V(5).Info("creating directory", "target", target)
			if err := os.MkdirAll(target, 0755); err != nil {
				log.Error(err, "failed to create directory", "target", target)
				return err
			}
			dirs = append(dirs, dirInfo{target: target, mode: header.FileInfo().Mode().Perm() | 0700, modTime: header.ModTime})
		case tar.TypeReg:
			log.V(5).Info("creating file", "target", target, "mode", header.Mode)
			if err := writeFile(target, tr, header.FileInfo().Mode().Perm(), header.ModTime); err != nil {
				log.Error(err, "failed to extract file", "target", target)
				return err
			}
		case tar.TypeSymlink:
			log.V(5).Info("creating symlink", "target", target, "link", header.Linkname)
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(header.Linkname, target); err != nil {
				log.Error(err, "failed to create symlink", "target", target)
				return err
			}
		case tar.TypeLink:
			linkName, ok := stripPrefix(header.Linkname, prefix)
			if !ok {
				return fmt.Errorf("hardlink %s points outside of prefix: %s", header.Name, header.Linkname)
			}
			source, err := secureJoin(path, linkName)
			if err != nil {
				return err
			}
			log.V(5).Info("creating hardlink", "target", target, "source", source)
			_ = os.Remove(target)
			if err := os.Link(source, target); err != nil {
				log.Error(err, "failed to create hardlink", "target", target)
				return err
			}
		default:
			log.V(4).Info("skipping unsupported file type", "name", header.Name, "type", header.Typeflag)
		}
	}
}

// Tar writes the contents of srcDir into a tar archive. Each
// entry is placed beneath prefix.
func Tar(ctx context.Context, w io.Writer, srcDir, prefix string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", srcDir, "prefix", prefix)
	tw := tar.NewWriter(w)

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(filepath.Join(prefix, rel))
		if rel == "." {
			if prefix == "" {
				return nil
			}
			name = prefix
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			link, err = os.Readlink(path)
			if err != nil {
				return err
			}
		}
		header, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		header.Name = name
		if info.IsDir() {
			header.Name += "/"
		}
		log.V(6).Info("adding file", "name", header.Name)
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
	if err != nil {
		log.Error(err, "failed to write archive")
		return err
	}
	return tw.Close()
}

func writeFile(target string, r io.Reader, mode os.FileMode, modTime time.Time) error {
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// the umask may have dropped bits
	if err := os.Chmod(target, mode); err != nil {
		return err
	}
	if !modTime.IsZero() {
		_ = os.Chtimes(target, modTime, modTime)
	}
	return nil
}

// stripPrefix removes the leading directory prefix from an
// archive entry name. It returns false if the entry does not
// live beneath the prefix.
func stripPrefix(name, prefix string) (string, bool) {
	name = strings.TrimPrefix(name, "./")
	if prefix == "" {
		return name, true
	}
	prefix = strings.Trim(prefix, "/")
	trimmed := strings.TrimSuffix(name, "/")
	if trimmed == prefix {
		return "", true
	}
	if !strings.HasPrefix(name, prefix+"/") {
		return "", false
	}
	return strings.TrimPrefix(name, prefix+"/"), true
}

// secureJoin joins name onto root, refusing anything that
// would escape root.
func secureJoin(root, name string) (string, error) {
	root = filepath.Clean(root)
	target := filepath.Join(root, name)
	if target != root && !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return "", fmt.Errorf("illegal file path in archive: %s", name)
	}
	return target, nil
}
