package archiveutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-logr/logr"
)

// Extract expands an archive into dst, choosing the format based on
// the filename. Zip archives are always extracted in full, tar
// archives honour the prefix (see Untar).
func Extract(ctx context.Context, archive, dst, prefix string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("archive", archive, "dst", dst)

	kind := Kind(archive)
	log.V(1).Info("extracting archive", "kind", kind, "prefix", prefix)
	switch kind {
	case ExtZip:
		return Unzip(ctx, archive, dst)
	case "":
		return fmt.Errorf("unknown archive type: %s", filepath.Base(archive))
	}

	f, err := os.Open(archive)
	if err != nil {
		log.Error(err, "failed to open archive")
		return err
	}
	defer f.Close()

	r, err := Decompress(archive, f)
	if err != nil {
		return fmt.Errorf("opening %s: %w", archive, err)
	}
	defer r.Close()

	if err := Untar(ctx, r, dst, prefix); err != nil {
		return fmt.Errorf("extracting %s: %w", archive, err)
	}
	return nil
}

// Archive writes srcDir into a compressed tar archive at dst. The
// compression is chosen from the extension of dst. The archive is
// written next to dst and moved into place once complete.
func Archive(ctx context.Context, srcDir, dst, prefix string) error {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", srcDir, "dst", dst)
	log.V(1).Info("creating archive", "prefix", prefix)

	f, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.partial")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	w, err := Compress(dst, f)
	if err != nil {
		_ = f.Close()
		return err
	}
	if err := Tar(ctx, w, srcDir, prefix); err != nil {
		_ = w.Close()
		_ = f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		log.Error(err, "failed to move archive into place")
		return err
	}
	return nil
}
