package requestutil

import (
	"fmt"
	"io"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/djcass44/cef-packager/pkg/archiveutil"
	"github.com/gabriel-vasile/mimetype"
	"github.com/go-logr/logr"
)

var ContentTypesGzip = []string{
	"application/gzip",
	"application/x-gzip",
}

var ContentTypesBzip2 = []string{
	"application/x-bzip2",
}

var ContentTypesXZ = []string{
	"application/x-xz",
}

// WithDecompression returns a handler that copies the response
// body into out. Bodies served as a compressed file (e.g. an
// index.html.gz) are decompressed on the way through.
func WithDecompression(out io.Writer) requests.ResponseHandler {
	return func(response *http.Response) error {
		log := logr.FromContextOrDiscard(response.Request.Context())
		var stream io.Reader = response.Body

		if ext := compressionExt(response.Header.Get("Content-Type")); ext != "" {
			log.V(8).Info("decompressing response", "ext", ext)
			dec, err := archiveutil.Decompress(ext, response.Body)
			if err != nil {
				return fmt.Errorf("decompressing: %w", err)
			}
			defer dec.Close()
			stream = dec
		}

		_, err := io.Copy(out, stream)
		if err != nil {
			return fmt.Errorf("writing uncompressed output: %w", err)
		}
		return nil
	}
}

func compressionExt(s string) string {
	switch {
	case mimetype.EqualsAny(s, ContentTypesGzip...):
		return ".gz"
	case mimetype.EqualsAny(s, ContentTypesBzip2...):
		return ".bz2"
	case mimetype.EqualsAny(s, ContentTypesXZ...):
		return ".xz"
	default:
		return ""
	}
}
