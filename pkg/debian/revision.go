package debian

import (
	"strconv"
	"strings"

	v1 "github.com/djcass44/cef-packager/pkg/api/v1"
	"pault.ag/go/debian/version"
)

// IncrementRevision bumps the last dot-separated component of a
// Debian revision. The minor strategy always produces at least two
// components, so "1" becomes "1.1". Components that aren't numbers
// are reset.
func IncrementRevision(rev string, strategy v1.RevisionStrategy) string {
	parts := strings.Split(rev, ".")
	if strategy == v1.RevisionMinor && len(parts) < 2 {
		parts = append(parts, "0")
	}
	last := len(parts) - 1
	n, err := strconv.Atoi(parts[last])
	switch {
	case err == nil:
		n++
	case strategy == v1.RevisionMinor:
		n = 1
	default:
		n = 0
	}
	parts[last] = strconv.Itoa(n)
	return strings.Join(parts, ".")
}

// NextVersion works out the version of the next changelog entry.
// When the upstream version is unchanged the revision is bumped,
// otherwise it starts again. The epoch is always carried over.
func NextVersion(old version.Version, upstream string, strategy v1.RevisionStrategy) version.Version {
	rev := "0"
	if old.Version == upstream && old.Revision != "" {
		rev = old.Revision
	}
	return version.Version{
		Epoch:    old.Epoch,
		Version:  upstream,
		Revision: IncrementRevision(rev, strategy),
	}
}
