package archiveutil

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/mholt/archives"
	"github.com/ulikunitz/xz"
)

const (
	ExtZip    = "zip"
	ExtTarGz  = "tar.gz"
	ExtTarBz2 = "tar.bz2"
	ExtTarXz  = "tar.xz"
	ExtTarZst = "tar.zst"
)

type compression struct {
	ext    string
	reader func(r io.Reader) (io.ReadCloser, error)
	writer func(w io.Writer) (io.WriteCloser, error)
}

var compressions = []compression{
	{
		ext: ".gz",
		reader: func(r io.Reader) (io.ReadCloser, error) {
			return gzip.NewReader(r)
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return gzip.NewWriter(w), nil
		},
	},
	{
		ext: ".bz2",
		reader: func(r io.Reader) (io.ReadCloser, error) {
			return archives.Bz2{}.OpenReader(r)
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return archives.Bz2{CompressionLevel: 9}.OpenWriter(w)
		},
	},
	{
		ext: ".xz",
		reader: func(r io.Reader) (io.ReadCloser, error) {
			reader, err := xz.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(reader), nil
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return xz.NewWriter(w)
		},
	},
	{
		ext: ".zst",
		reader: func(r io.Reader) (io.ReadCloser, error) {
			dec, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return dec.IOReadCloser(), nil
		},
		writer: func(w io.Writer) (io.WriteCloser, error) {
			return zstd.NewWriter(w)
		},
	},
}

func compressionFor(name string) (*compression, error) {
	ext := strings.ToLower(filepath.Ext(name))
	for i := range compressions {
		if compressions[i].ext == ext {
			return &compressions[i], nil
		}
	}
	return nil, fmt.Errorf("unsupported compression: %s", ext)
}

// Decompress wraps r in a decompressing reader chosen by
// the extension of name (e.g. ".gz").
func Decompress(name string, r io.Reader) (io.ReadCloser, error) {
	c, err := compressionFor(name)
	if err != nil {
		return nil, err
	}
	return c.reader(r)
}

// Compress wraps w in a compressing writer chosen by
// the extension of name.
func Compress(name string, w io.Writer) (io.WriteCloser, error) {
	c, err := compressionFor(name)
	if err != nil {
		return nil, err
	}
	return c.writer(w)
}

// Kind returns the archive type of a file based on its name
// (e.g. "tar.bz2"), or an empty string if it is not an archive
// we know how to handle.
func Kind(name string) string {
	name = strings.ToLower(filepath.Base(name))
	for _, k := range []string{ExtTarGz, ExtTarBz2, ExtTarXz, ExtTarZst, ExtZip} {
		if strings.HasSuffix(name, "."+k) {
			return k
		}
	}
	return ""
}

// TrimKind removes the archive extension from a filename
// so that "foo.tar.bz2" becomes "foo".
func TrimKind(name, kind string) string {
	if kind == "" {
		return name
	}
	return strings.TrimSuffix(name, "."+kind)
}
