package downloader

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipped(t *testing.T, s string) []byte {
	f, err := os.CreateTemp(t.TempDir(), "*.gz")
	require.NoError(t, err)
	gw := gzip.NewWriter(f)
	_, err = gw.Write([]byte(s))
	require.NoError(t, err)
	require.NoError(t, gw.Close())
	require.NoError(t, f.Close())
	data, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	return data
}

func TestDownloader_Download(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	archive := gzipped(t, "hello world")
	sum := sha256.Sum256(archive)
	checksum := hex.EncodeToString(sum[:])

	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cef_binary_1.0+g1_linux64.tar.gz":
			if r.Method == http.MethodGet {
				hits.Add(1)
			}
			w.Header().Set("Content-Type", "application/gzip")
			_, _ = w.Write(archive)
		case "/error.tar.gz":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte("<!DOCTYPE html><html><body>Access denied</body></html>"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	src := ts.URL + "/cef_binary_1.0%2Bg1_linux64.tar.gz"

	t.Run("file is downloaded then cached", func(t *testing.T) {
		hits.Store(0)
		dl, err := NewDownloader(t.TempDir())
		require.NoError(t, err)

		path, ok, err := dl.Download(ctx, src, "cef_binary_1.0+g1_linux64.tar.gz", Options{SourceChecksum: checksum})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.FileExists(t, path)

		path, ok, err = dl.Download(ctx, src, "cef_binary_1.0+g1_linux64.tar.gz", Options{})
		require.NoError(t, err)
		assert.False(t, ok)
		assert.FileExists(t, path)
		assert.EqualValues(t, 1, hits.Load())
	})
	t.Run("force downloads again", func(t *testing.T) {
		hits.Store(0)
		dl, err := NewDownloader(t.TempDir())
		require.NoError(t, err)

		_, _, err = dl.Download(ctx, src, "archive.tar.gz", Options{})
		require.NoError(t, err)
		_, ok, err := dl.Download(ctx, src, "archive.tar.gz", Options{Force: true})
		require.NoError(t, err)
		assert.True(t, ok)
		assert.EqualValues(t, 2, hits.Load())
	})
	t.Run("corrupt cache is replaced", func(t *testing.T) {
		dl, err := NewDownloader(t.TempDir())
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(dl.Path("archive.tar.gz"), []byte("junk"), 0644))

		path, ok, err := dl.Download(ctx, src, "archive.tar.gz", Options{Checksum: checksum})
		require.NoError(t, err)
		assert.True(t, ok)

		actual, err := Sha256(path)
		assert.NoError(t, err)
		assert.EqualValues(t, checksum, actual)
	})
	t.Run("checksum mismatch fails", func(t *testing.T) {
		dl, err := NewDownloader(t.TempDir())
		require.NoError(t, err)

		_, _, err = dl.Download(ctx, src, "archive.tar.gz", Options{SourceChecksum: "0000000000000000000000000000000000000000000000000000000000000000"})
		assert.Error(t, err)
		assert.NoFileExists(t, dl.Path("archive.tar.gz"))
	})
	t.Run("html is rejected", func(t *testing.T) {
		dl, err := NewDownloader(t.TempDir())
		require.NoError(t, err)

		_, _, err = dl.Download(ctx, ts.URL+"/error.tar.gz", "error.tar.gz", Options{})
		assert.ErrorIs(t, err, ErrNotArchive)
		assert.NoFileExists(t, dl.Path("error.tar.gz"))
	})
	t.Run("missing file fails", func(t *testing.T) {
		dl, err := NewDownloader(t.TempDir())
		require.NoError(t, err)

		_, _, err = dl.Download(ctx, ts.URL+"/missing.tar.gz", "missing.tar.gz", Options{})
		assert.Error(t, err)
	})
}
