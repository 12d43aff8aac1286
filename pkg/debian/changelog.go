package debian

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	v1 "github.com/djcass44/cef-packager/pkg/api/v1"
	"github.com/go-logr/logr"
	debversion "github.com/knqyf263/go-deb-version"
	"github.com/mitchellh/go-wordwrap"
	"pault.ag/go/debian/changelog"
	"pault.ag/go/debian/version"
)

const (
	DefaultUrgency = "medium"

	changeWidth   = 70
	changeIndent  = "  * "
	changeHanging = "    "
)

// Entry is a single block in a Debian changelog.
type Entry struct {
	Source       string
	Version      version.Version
	Distribution string
	Urgency      string
	Changes      []string
	Maintainer   string
	Email        string
	When         time.Time
}

// String formats the entry the way dch writes it, including
// the blank line that separates it from the next entry.
func (e *Entry) String() string {
	sb := strings.Builder{}
	sb.WriteString(fmt.Sprintf("%s (%s) %s; urgency=%s\n\n", e.Source, e.Version.String(), e.Distribution, e.Urgency))
	for _, c := range e.Changes {
		wrapped := wordwrap.WrapString(c, changeWidth-uint(len(changeIndent)))
		for i, line := range strings.Split(wrapped, "\n") {
			if i == 0 {
				sb.WriteString(changeIndent)
			} else {
				sb.WriteString(changeHanging)
			}
			sb.WriteString(line)
			sb.WriteString("\n")
		}
	}
	sb.WriteString(fmt.Sprintf("\n -- %s <%s>  %s\n\n", e.Maintainer, e.Email, e.When.Format(time.RFC1123Z)))
	return sb.String()
}

// Update describes an automatic changelog update.
type Update struct {
	Source       string
	Upstream     string
	Distribution string
	Strategy     v1.RevisionStrategy
	Message      string
	Maintainer   string
	Email        string
	When         time.Time
}

// ReadTop returns the newest entry in a changelog.
func ReadTop(path string) (*changelog.ChangelogEntry, error) {
	entry, err := changelog.ParseFileOne(path)
	if err != nil {
		return nil, fmt.Errorf("reading changelog %s: %w", path, err)
	}
	return entry, nil
}

// UpdateChangelog prepends a new entry to the changelog at path and
// returns the version that was written. A missing changelog is
// created from scratch.
func UpdateChangelog(ctx context.Context, path string, u Update) (version.Version, error) {
	log := logr.FromContextOrDiscard(ctx).WithValues("path", path, "upstream", u.Upstream)

	var old version.Version
	urgency := DefaultUrgency
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		top, err := ReadTop(path)
		if err != nil {
			return version.Version{}, err
		}
		old = top.Version
		if v := top.Arguments["urgency"]; v != "" {
			urgency = v
		}
		log.V(1).Info("read previous changelog entry", "source", top.Source, "version", old.String(), "urgency", urgency)
	case errors.Is(err, os.ErrNotExist):
		log.Info("changelog does not exist and will be created")
	default:
		return version.Version{}, err
	}

	next := NextVersion(old, u.Upstream, u.Strategy)
	if existing != nil && !isNewer(old.String(), next.String()) {
		log.Info("new changelog version is not greater than the previous one", "previous", old.String(), "next", next.String())
	}

	when := u.When
	if when.IsZero() {
		when = time.Now()
	}
	entry := &Entry{
		Source:       u.Source,
		Version:      next,
		Distribution: u.Distribution,
		Urgency:      urgency,
		Changes:      []string{u.Message},
		Maintainer:   u.Maintainer,
		Email:        u.Email,
		When:         when,
	}

	info, err := os.Stat(path)
	mode := os.FileMode(0644)
	if err == nil {
		mode = info.Mode().Perm()
	}
	if err := os.WriteFile(path, append([]byte(entry.String()), existing...), mode); err != nil {
		return version.Version{}, err
	}
	log.Info("updated changelog", "version", next.String(), "distribution", u.Distribution)
	return next, nil
}

func isNewer(old, next string) bool {
	prev, err := debversion.NewVersion(old)
	if err != nil {
		return true
	}
	v, err := debversion.NewVersion(next)
	if err != nil {
		return false
	}
	return v.GreaterThan(prev)
}
