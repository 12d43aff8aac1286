package archiveutil

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
)

// Unzip expands a zip archive into the given path.
func Unzip(ctx context.Context, archive, path string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("archive", archive, "path", path)

	zr, err := zip.OpenReader(archive)
	if err != nil {
		log.Error(err, "failed to open zip archive")
		return err
	}
	defer zr.Close()

	for _, file := range zr.File {
		target, err := secureJoin(path, file.Name)
		if err != nil {
			log.Error(err, "refusing to extract file", "name", file.Name)
			return err
		}
		if file.FileInfo().IsDir() {
			log.V(5).Info("creating directory", "target", target)
			if err := os.MkdirAll(target, 0755); err != nil {
				return err
			}
			continue
		}
		log.V(5).Info("creating file", "target", target)
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return err
		}
		rc, err := file.Open()
		if err != nil {
			log.Error(err, "failed to open file in archive", "name", file.Name)
			return err
		}
		mode := file.Mode().Perm()
		if mode == 0 {
			mode = 0644
		}
		err = writeFile(target, rc, mode, file.Modified)
		_ = rc.Close()
		if err != nil {
			log.Error(err, "failed to extract file", "target", target)
			return err
		}
	}
	return nil
}
