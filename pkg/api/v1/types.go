package v1

import metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

type RevisionStrategy string

const (
	RevisionMajor RevisionStrategy = "major"
	RevisionMinor RevisionStrategy = "minor"
)

type BuildSpec struct {
	Sites    []Site    `json:"sites,omitempty"`
	Packages []Package `json:"packages,omitempty"`
	Publish  Publish   `json:"publish,omitempty"`
}

// Site describes a vendor page that lists binary builds
// and the URL template used to download them.
type Site struct {
	Name     string `json:"name"`
	Index    string `json:"index,omitempty"`
	Download string `json:"download,omitempty"`
	Platform string `json:"platform,omitempty"`
	Archive  string `json:"archive,omitempty"`
	// MinMajor drops any build whose major version is
	// less than or equal to it.
	MinMajor *int `json:"minMajor,omitempty"`
}

type Package struct {
	Name           string            `json:"name"`
	Alias          string            `json:"alias,omitempty"`
	Site           string            `json:"site"`
	Version        int               `json:"version"`
	Disable        bool              `json:"disable,omitempty"`
	DeleteFiles    []string          `json:"deleteFiles,omitempty"`
	DebianRevision RevisionStrategy  `json:"debianRevision,omitempty"`
	SourceName     string            `json:"sourceName,omitempty"`
	VersionFile    string            `json:"versionFile,omitempty"`
	VersionPattern string            `json:"versionPattern,omitempty"`
	Values         map[string]string `json:"values,omitempty"`
	Git            string            `json:"git,omitempty"`
}

type Publish struct {
	Command      string `json:"command,omitempty"`
	NoUploadFlag string `json:"noUploadFlag,omitempty"`
}

type Build struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec BuildSpec `json:"spec"`
}
