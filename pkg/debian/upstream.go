package debian

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"regexp"
)

var ErrVersionNotFound = errors.New("upstream version not found")

// ReadUpstreamVersion scans a file line by line and returns the
// first capture group of the first line matching re.
func ReadUpstreamVersion(path string, re *regexp.Regexp) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if m := re.FindStringSubmatch(scanner.Text()); len(m) > 1 && m[1] != "" {
			return m[1], nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: %s", ErrVersionNotFound, path)
}
