package debian

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-logr/logr"
	"pault.ag/go/debian/control"
)

const (
	FormatFile  = "source/format"
	ControlFile = "control"
)

var ErrNoSource = errors.New("control file has no source paragraph")

var formatRegex = regexp.MustCompile(`^([0-9]+\.[0-9]+)(?:\s*\(([a-z]+)\))?`)

// SourceFormat is the contents of debian/source/format
// (e.g. "3.0 (quilt)").
type SourceFormat struct {
	Version string
	Type    string
}

// Native reports whether the package is built without
// an orig tarball.
func (f SourceFormat) Native() bool {
	return f.Type == "native"
}

func (f SourceFormat) String() string {
	if f.Type == "" {
		return f.Version
	}
	return fmt.Sprintf("%s (%s)", f.Version, f.Type)
}

// ReadSourceFormat reads the source format from a debian
// directory. A missing file means format 1.0.
func ReadSourceFormat(ctx context.Context, debianDir string) (SourceFormat, error) {
	log := logr.FromContextOrDiscard(ctx)
	path := filepath.Join(debianDir, FormatFile)

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.V(1).Info("source format file is missing, assuming 1.0", "path", path)
			return SourceFormat{Version: "1.0"}, nil
		}
		return SourceFormat{}, err
	}
	defer f.Close()

	line, err := bufio.NewReader(f).ReadString('\n')
	if err != nil && line == "" {
		return SourceFormat{}, fmt.Errorf("reading %s: %w", path, err)
	}
	m := formatRegex.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return SourceFormat{}, fmt.Errorf("unrecognised source format in %s: %q", path, strings.TrimSpace(line))
	}
	out := SourceFormat{Version: m[1], Type: m[2]}
	log.V(1).Info("read source format", "format", out.String())
	return out, nil
}

type controlParagraph struct {
	Source  string
	Package string
}

// ReadSourceName returns the name of the source package
// declared in debian/control.
func ReadSourceName(debianDir string) (string, error) {
	f, err := os.Open(filepath.Join(debianDir, ControlFile))
	if err != nil {
		return "", err
	}
	defer f.Close()
	dec, err := control.NewDecoder(f, nil)
	if err != nil {
		return "", err
	}
	var out []controlParagraph
	if err := dec.Decode(&out); err != nil {
		return "", err
	}
	for _, p := range out {
		if p.Source != "" {
			return p.Source, nil
		}
	}
	return "", ErrNoSource
}
