package lockfile

const LockfileVersion = 1

type Lock struct {
	Name            string             `json:"name"`
	LockfileVersion int                `json:"lockfileVersion"`
	Packages        map[string]Package `json:"packages"`
}

type Package struct {
	Name string `json:"-"`
	// Version is the vendor build that was resolved.
	Version  string `json:"version"`
	Resolved string `json:"resolved"`
	Filename string `json:"filename"`
	Archive  string `json:"archive,omitempty"`
	// Integrity is the sha256 of the archive in the download
	// directory, after any files have been stripped from it.
	Integrity string `json:"integrity"`
	// Upstream is the sha256 of the archive as it was served.
	Upstream string `json:"upstream,omitempty"`
	// Stripped lists the files that were removed from
	// the archive that Integrity describes.
	Stripped []string `json:"stripped,omitempty"`
	// Tree is the digest of the package repository after
	// it was last updated.
	Tree string `json:"tree,omitempty"`
}
