package publish

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakePublish = `#!/bin/sh
pwd -P
echo "$@"
if [ "$1" = "fail" ]; then
	exit 3
fi
`

func TestRunner_Args(t *testing.T) {
	var cases = []struct {
		command string
		upload  bool
		out     []string
	}{
		{"ppa_publish", false, []string{"ppa_publish", "--noput"}},
		{"ppa_publish", true, []string{"ppa_publish"}},
		{`ppa_publish --ppa "ppa:jane/cef"`, false, []string{"ppa_publish", "--ppa", "ppa:jane/cef", "--noput"}},
	}
	for _, tt := range cases {
		t.Run(tt.command, func(t *testing.T) {
			r, err := NewRunner(tt.command, "--noput")
			require.NoError(t, err)
			assert.EqualValues(t, tt.out, r.Args(tt.upload))
		})
	}

	_, err := NewRunner("   ", "--noput")
	assert.ErrorIs(t, err, ErrEmptyCommand)
	_, err = NewRunner(`ppa_publish "unterminated`, "--noput")
	assert.Error(t, err)
}

func TestRunner_Run(t *testing.T) {
	ctx := logr.NewContext(context.TODO(), testr.NewWithOptions(t, testr.Options{Verbosity: 10}))

	bin := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(bin, "fake_publish"), []byte(fakePublish), 0755))
	t.Setenv("PATH", bin+string(os.PathListSeparator)+os.Getenv("PATH"))

	repo := t.TempDir()

	t.Run("command runs in the repository", func(t *testing.T) {
		r, err := NewRunner("fake_publish --source", "--noput")
		require.NoError(t, err)
		buf := &bytes.Buffer{}
		r.Stdout = buf

		require.NoError(t, r.Run(ctx, repo, false))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		wd, err := filepath.EvalSymlinks(repo)
		require.NoError(t, err)
		assert.EqualValues(t, wd, lines[0])
		assert.EqualValues(t, "--source --noput", lines[1])
	})
	t.Run("non-zero exit is an error", func(t *testing.T) {
		r, err := NewRunner("fake_publish fail", "--noput")
		require.NoError(t, err)
		r.Stdout = &bytes.Buffer{}
		assert.ErrorContains(t, r.Run(ctx, repo, true), "exited with code 3")
	})
	t.Run("missing executable is an error", func(t *testing.T) {
		r, err := NewRunner("definitely_not_a_real_publisher", "--noput")
		require.NoError(t, err)
		assert.Error(t, r.Run(ctx, repo, false))
	})
}
