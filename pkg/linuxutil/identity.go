package linuxutil

import (
	"net/mail"
	"os"
	"os/user"
	"strings"
)

// Maintainer works out who is making a Debian changelog entry in
// the same way as the devscripts tooling. DEBFULLNAME and DEBEMAIL
// win over NAME and EMAIL, and DEBEMAIL may carry the name as well
// (e.g. "Jane Doe <jane@example.org>"). Anything that is still
// unknown comes from the current user and hostname.
func Maintainer() (string, string) {
	name := firstEnv("DEBFULLNAME", "NAME")
	email := firstEnv("DEBEMAIL", "EMAIL")

	if email != "" && strings.Contains(email, "<") {
		if addr, err := mail.ParseAddress(email); err == nil {
			if name == "" {
				name = addr.Name
			}
			email = addr.Address
		}
	}

	if name == "" || email == "" {
		var username string
		if u, err := user.Current(); err == nil {
			username = u.Username
			if name == "" {
				// the gecos field may carry extra
				// comma-separated details
				name, _, _ = strings.Cut(u.Name, ",")
			}
		}
		if name == "" {
			name = username
		}
		if email == "" {
			host, _ := os.Hostname()
			email = username + "@" + host
		}
	}
	return strings.TrimSpace(name), strings.TrimSpace(email)
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
