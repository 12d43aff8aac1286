package fileutil

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
	"github.com/otiai10/copy"
)

// Sync copies the contents of src over dst, overwriting anything
// that already exists. Once the copy is complete, anything in dst
// that does not exist in src is removed unless it is ignored.
func Sync(ctx context.Context, src, dst string, ignore IgnoreFunc) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src, "dst", dst)
	log.V(1).Info("synchronising directory")

	if err := os.MkdirAll(dst, 0755); err != nil {
		return err
	}
	opts := copy.Options{
		OnSymlink: func(string) copy.SymlinkAction {
			return copy.Shallow
		},
		Skip: func(path string) (bool, error) {
			// symlinks can't be created over the top of
			// an existing file
			info, err := os.Lstat(path)
			if err != nil || info.Mode()&os.ModeSymlink == 0 {
				return false, nil
			}
			rel, err := filepath.Rel(src, path)
			if err != nil {
				return false, err
			}
			if err := os.Remove(filepath.Join(dst, rel)); err != nil && !os.IsNotExist(err) {
				return false, err
			}
			return false, nil
		},
	}
	if err := copy.Copy(src, dst, opts); err != nil {
		log.Error(err, "failed to copy directory")
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return RemoveObsolete(ctx, src, dst, ignore)
}

// RemoveObsolete deletes everything in dst that has no
// counterpart in src. Ignored names are left alone at every
// level of the tree.
func RemoveObsolete(ctx context.Context, src, dst string, ignore IgnoreFunc) error {
	log := logr.FromContextOrDiscard(ctx)

	entries, err := os.ReadDir(dst)
	if err != nil {
		return err
	}
	var errs []error
	for _, e := range entries {
		if ignore.matches(e.Name()) {
			continue
		}
		srcName := filepath.Join(src, e.Name())
		dstName := filepath.Join(dst, e.Name())
		if e.IsDir() {
			if err := RemoveObsolete(ctx, srcName, dstName, ignore); err != nil && !os.IsNotExist(err) {
				errs = append(errs, err)
			}
		}
		if _, err := os.Lstat(srcName); err == nil {
			continue
		}
		log.Info("removing obsolete file", "path", dstName)
		if err := os.RemoveAll(dstName); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// CopyFile copies a single file, keeping its
// permissions and modification time.
func CopyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if err := copy.Copy(src, dst); err != nil {
		return err
	}
	return os.Chtimes(dst, info.ModTime(), info.ModTime())
}
