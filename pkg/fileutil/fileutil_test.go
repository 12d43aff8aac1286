package fileutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubst(t *testing.T) {
	values := map[string]string{
		"cef:ABI": "78",
		"name":    "cef",
		"empty":   "",
	}
	var cases = []struct {
		in          string
		keepUnknown bool
		out         string
		changed     bool
	}{
		{"Package: libcef${cef:ABI}", true, "Package: libcef78", true},
		{"${name}-${cef:ABI}", true, "cef-78", true},
		{"export PATH=${PATH}:/opt", true, "export PATH=${PATH}:/opt", false},
		{"${PATH} ${name}", true, "${PATH} cef", true},
		{"${empty}", true, "${empty}", false},
		{"libcef${cef:ABI}${unknown}.install", false, "libcef78.install", true},
		{"no references", false, "no references", false},
		{"unterminated ${name", true, "unterminated ${name", false},
		{"${name}${name}", false, "cefcef", true},
	}
	for _, tt := range cases {
		t.Run(tt.in, func(t *testing.T) {
			out, changed := Subst(tt.in, values, tt.keepUnknown)
			assert.EqualValues(t, tt.out, out)
			assert.EqualValues(t, tt.changed, changed)
		})
	}
}

func TestIgnorePatterns(t *testing.T) {
	ignore := IgnorePatterns("changelog", ".git*")
	assert.True(t, ignore("changelog"))
	assert.True(t, ignore(".git"))
	assert.True(t, ignore(".gitignore"))
	assert.False(t, ignore("control"))

	var none IgnoreFunc
	assert.False(t, none.matches("anything"))
}

func TestConfigure(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	src := t.TempDir()
	dst := filepath.Join(t.TempDir(), "debian")

	mtime := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.WriteFile(filepath.Join(src, "control"), []byte("Package: libcef${cef:ABI}\nDepends: ${shlibs:Depends}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "rules"), []byte("#!/usr/bin/make -f\n%:\n\tdh $@\n"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "libcef${cef:ABI}.install"), []byte("usr/lib/libcef.so"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "changelog"), []byte("ignored"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, ".git"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, ".git", "HEAD"), []byte("ref"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(src, "source"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "source", "format"), []byte("3.0 (quilt)\n"), 0644))
	require.NoError(t, os.Chtimes(filepath.Join(src, "rules"), mtime, mtime))

	err := Configure(ctx, src, dst, map[string]string{"cef:ABI": "78"}, IgnorePatterns("changelog", ".git*"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dst, "control"))
	require.NoError(t, err)
	assert.EqualValues(t, "Package: libcef78\nDepends: ${shlibs:Depends}\n", string(data))

	data, err = os.ReadFile(filepath.Join(dst, "libcef78.install"))
	require.NoError(t, err)
	assert.EqualValues(t, "usr/lib/libcef.so", string(data))

	info, err := os.Stat(filepath.Join(dst, "rules"))
	require.NoError(t, err)
	assert.EqualValues(t, os.FileMode(0755), info.Mode().Perm())
	assert.True(t, mtime.Equal(info.ModTime()))

	assert.FileExists(t, filepath.Join(dst, "source", "format"))
	assert.NoFileExists(t, filepath.Join(dst, "changelog"))
	assert.NoDirExists(t, filepath.Join(dst, ".git"))
}

func TestSync(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	src := t.TempDir()
	dst := t.TempDir()

	require.NoError(t, os.MkdirAll(filepath.Join(src, "include"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "include", "cef_version.h"), []byte("new"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "README.txt"), []byte("readme"), 0644))
	require.NoError(t, os.Symlink("README.txt", filepath.Join(src, "README")))

	// existing repository state
	require.NoError(t, os.MkdirAll(filepath.Join(dst, "include"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "include", "cef_version.h"), []byte("old"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "include", "removed.h"), []byte("old"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dst, "obsolete"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "obsolete", "file"), []byte("old"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dst, "debian"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dst, "debian", "control"), []byte("control"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dst, ".gitignore"), []byte("*.o"), 0644))
	require.NoError(t, os.Symlink("include", filepath.Join(dst, "README")))

	ignore := IgnorePatterns("debian", ".pc", ".git*")
	require.NoError(t, Sync(ctx, src, dst, ignore))
	// a second run must not trip over its own symlinks
	require.NoError(t, Sync(ctx, src, dst, ignore))

	data, err := os.ReadFile(filepath.Join(dst, "include", "cef_version.h"))
	require.NoError(t, err)
	assert.EqualValues(t, "new", string(data))

	link, err := os.Readlink(filepath.Join(dst, "README"))
	require.NoError(t, err)
	assert.EqualValues(t, "README.txt", link)

	assert.NoFileExists(t, filepath.Join(dst, "include", "removed.h"))
	assert.NoDirExists(t, filepath.Join(dst, "obsolete"))
	assert.FileExists(t, filepath.Join(dst, "debian", "control"))
	assert.FileExists(t, filepath.Join(dst, ".gitignore"))
}

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "cef_binary.tar.bz2")
	dst := filepath.Join(dir, "cef78_78.3.9.orig.tar.bz2")

	mtime := time.Date(2019, 12, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, os.WriteFile(src, []byte("archive"), 0640))
	require.NoError(t, os.Chtimes(src, mtime, mtime))

	require.NoError(t, CopyFile(src, dst))

	info, err := os.Stat(dst)
	require.NoError(t, err)
	assert.EqualValues(t, os.FileMode(0640), info.Mode().Perm())
	assert.True(t, mtime.Equal(info.ModTime()))
}
