package buildindex

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/carlmjohnson/requests"
	"github.com/djcass44/cef-packager/pkg/requestutil"
	"github.com/go-logr/logr"
	version "github.com/knqyf263/go-deb-version"
)

const (
	userAgent = "Mozilla/5.0"

	attrVersion = "data-version"
)

// Build is a single binary build listed on a build index.
type Build struct {
	Major   int
	Version string
}

// Fetch downloads a build index page and returns the builds listed
// for the given platform.
func Fetch(ctx context.Context, url, platform string, minMajor int) ([]Build, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("url", url, "platform", platform)
	log.V(1).Info("fetching build index")

	buf := &bytes.Buffer{}
	err := requests.URL(url).
		UserAgent(userAgent).
		Accept("*/*").
		Handle(requestutil.WithDecompression(buf)).
		Fetch(ctx)
	if err != nil {
		log.Error(err, "failed to fetch build index")
		return nil, fmt.Errorf("fetching build index %s: %w", url, err)
	}
	log.V(2).Info("downloaded build index", "size", buf.Len())

	return Parse(ctx, buf, platform, minMajor)
}

// Parse extracts the builds for a platform from an index page. The
// page is expected to contain a table whose id is the platform name
// with one "toprow" row per build carrying a data-version attribute.
// Builds with a major version <= minMajor are dropped.
func Parse(ctx context.Context, r io.Reader, platform string, minMajor int) ([]Build, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("platform", platform)

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing build index: %w", err)
	}

	table := doc.Find(fmt.Sprintf("table[id=%q]", platform)).First()
	if table.Length() == 0 {
		log.Info("build index has no table for platform")
		return nil, nil
	}

	var builds []Build
	table.Find("tr.toprow").Each(func(_ int, s *goquery.Selection) {
		v, ok := s.Attr(attrVersion)
		if !ok {
			return
		}
		v = strings.TrimSpace(v)
		major := Major(v)
		if major <= minMajor {
			log.V(5).Info("skipping build", "version", v, "major", major)
			return
		}
		builds = append(builds, Build{Major: major, Version: v})
	})
	log.V(1).Info("parsed build index", "count", len(builds))
	return builds, nil
}

// Major returns the integer before the first '.' of a build
// version, or 0 if it is not a number.
func Major(v string) int {
	s, _, _ := strings.Cut(v, ".")
	major, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return major
}

// Latest returns every build matching the given major version in
// page order, and the newest of them. The newest is chosen by version
// rather than by its position on the page, so an index that is not
// sorted newest first still yields the right build. Builds are compared
// as Debian versions, anything that cannot be parsed loses to the first
// build listed on the page.
func Latest(builds []Build, major int) (string, []string) {
	var matches []string
	var latest string
	var latestVersion *version.Version
	for _, b := range builds {
		if b.Major != major {
			continue
		}
		matches = append(matches, b.Version)
		if latest == "" {
			latest = b.Version
			if v, err := version.NewVersion(b.Version); err == nil {
				latestVersion = &v
			}
			continue
		}
		if latestVersion == nil {
			continue
		}
		v, err := version.NewVersion(b.Version)
		if err != nil {
			continue
		}
		if v.GreaterThan(*latestVersion) {
			latest = b.Version
			latestVersion = &v
		}
	}
	return latest, matches
}
