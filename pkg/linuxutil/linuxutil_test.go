package linuxutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistribution(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	dir := t.TempDir()
	jammy := filepath.Join(dir, "jammy")
	require.NoError(t, os.WriteFile(jammy, []byte("DISTRIB_ID=Ubuntu\nDISTRIB_RELEASE=22.04\nDISTRIB_CODENAME=jammy\nDISTRIB_DESCRIPTION=\"Ubuntu 22.04.3 LTS\"\n"), 0644))
	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.WriteFile(empty, []byte("DISTRIB_ID=Debian\n"), 0644))

	var cases = []struct {
		name string
		path string
		out  string
	}{
		{"codename is read", jammy, "jammy"},
		{"missing codename", empty, DefaultDistribution},
		{"missing file", filepath.Join(dir, "missing"), DefaultDistribution},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			assert.EqualValues(t, tt.out, Distribution(ctx, tt.path, DefaultDistribution))
		})
	}
}

func TestMaintainer(t *testing.T) {
	t.Run("debian variables", func(t *testing.T) {
		t.Setenv("DEBFULLNAME", "Jane Doe")
		t.Setenv("DEBEMAIL", "jane@example.org")
		t.Setenv("NAME", "John Doe")
		t.Setenv("EMAIL", "john@example.org")

		name, email := Maintainer()
		assert.EqualValues(t, "Jane Doe", name)
		assert.EqualValues(t, "jane@example.org", email)
	})
	t.Run("name inside email", func(t *testing.T) {
		t.Setenv("DEBFULLNAME", "")
		t.Setenv("NAME", "")
		t.Setenv("DEBEMAIL", "Jane Doe <jane@example.org>")

		name, email := Maintainer()
		assert.EqualValues(t, "Jane Doe", name)
		assert.EqualValues(t, "jane@example.org", email)
	})
	t.Run("fallback values", func(t *testing.T) {
		t.Setenv("DEBFULLNAME", "")
		t.Setenv("NAME", "")
		t.Setenv("DEBEMAIL", "")
		t.Setenv("EMAIL", "")

		_, email := Maintainer()
		assert.Contains(t, email, "@")
	})
}
