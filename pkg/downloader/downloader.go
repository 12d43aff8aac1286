package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-logr/logr"
	"github.com/hashicorp/go-getter"
)

// ErrNotArchive is returned when the server responded with
// something that is clearly not a binary archive (e.g. an HTML
// error page).
var ErrNotArchive = errors.New("downloaded file is not an archive")

type Downloader struct {
	cacheDir string
}

type Options struct {
	// Force removes any cached copy before downloading.
	Force bool
	// Checksum is the expected sha256 of the cached file. A cached
	// file that does not match is downloaded again.
	Checksum string
	// SourceChecksum is the expected sha256 of the file as served
	// by the remote. It is passed to go-getter for verification.
	SourceChecksum string
}

func NewDownloader(cacheDir string) (*Downloader, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}
	return &Downloader{cacheDir: cacheDir}, nil
}

// Dir returns the directory files are downloaded into.
func (d *Downloader) Dir() string {
	return d.cacheDir
}

// Path returns the location a file would be downloaded to.
func (d *Downloader) Path(filename string) string {
	return filepath.Join(d.cacheDir, filename)
}

// Download fetches src into the cache directory as filename. If the
// file already exists it is reused unless opts say otherwise. The
// boolean return reports whether a download actually happened.
func (d *Downloader) Download(ctx context.Context, src, filename string, opts Options) (string, bool, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("src", src, "filename", filename)

	// download the file to a predictable location so that
	// we can avoid repeated downloads
	dst := d.Path(filename)
	log.V(1).Info("preparing to download file", "dst", dst)

	if _, err := os.Stat(dst); err == nil {
		switch {
		case opts.Force:
			log.V(1).Info("removing cached file")
			if err := os.Remove(dst); err != nil {
				return "", false, err
			}
		case opts.Checksum != "" && !d.matches(ctx, dst, opts.Checksum):
			log.Info("cached file does not match the lockfile, downloading again")
			if err := os.Remove(dst); err != nil {
				return "", false, err
			}
		default:
			log.V(1).Info("download file already exists", "dst", dst)
			return dst, false, nil
		}
	}

	log.Info("downloading file")
	source, err := withChecksum(src, opts.SourceChecksum)
	if err != nil {
		log.Error(err, "failed to parse url")
		return "", false, err
	}

	client := &getter.Client{
		Ctx:  ctx,
		Src:  source,
		Dst:  dst,
		Mode: getter.ClientModeFile,
		// we handle archives ourselves
		Decompressors:   map[string]getter.Decompressor{},
		DisableSymlinks: true,
	}
	if err := client.Get(); err != nil {
		log.Error(err, "failed to download file")
		_ = os.Remove(dst)
		return "", false, fmt.Errorf("downloading %s: %w", src, err)
	}

	if err := sniff(dst); err != nil {
		log.Error(err, "downloaded file looks wrong", "dst", dst)
		_ = os.Remove(dst)
		return "", false, err
	}

	// we need to chmod the files so that the root group
	// can access them as if they were the owner
	if err := os.Chmod(dst, 0664); err != nil {
		log.Error(err, "failed to update file permissions", "file", dst)
		return "", false, err
	}

	return dst, true, nil
}

func (*Downloader) matches(ctx context.Context, path, checksum string) bool {
	log := logr.FromContextOrDiscard(ctx)
	actual, err := Sha256(path)
	if err != nil {
		log.Error(err, "failed to hash cached file", "path", path)
		return false
	}
	return actual == checksum
}

// withChecksum appends a go-getter checksum query so that the
// downloaded file is verified before it is accepted.
func withChecksum(src, checksum string) (string, error) {
	uri, err := url.Parse(src)
	if err != nil {
		return "", err
	}
	if checksum == "" {
		return src, nil
	}
	q := uri.Query()
	q.Set("checksum", "sha256:"+checksum)
	uri.RawQuery = q.Encode()
	return uri.String(), nil
}

func sniff(path string) error {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return err
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/html") || m.Is("text/xml") {
			return fmt.Errorf("%w: detected %s", ErrNotArchive, mtype.String())
		}
	}
	return nil
}
