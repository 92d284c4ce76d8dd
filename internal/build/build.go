package build

import (
	"fmt"
	"time"
)

// Set with -ldflags "-X github.com/ItsNotGoodName/x-immersive/internal/build.version=...".
var (
	commit  = ""
	date    = ""
	version = "dev"
	repoURL = ""
)

func init() {
	date, _ := time.Parse(time.RFC3339, date)

	Current = Build{
		Commit:     commit,
		Version:    version,
		Date:       date,
		RepoURL:    repoURL,
		CommitURL:  "#",
		ReleaseURL: "#",
	}
	if repoURL != "" {
		Current.CommitURL = repoURL + "/tree/" + commit
		Current.ReleaseURL = repoURL + "/releases/tag/" + version
	}
}

var Current Build

type Build struct {
	Commit     string    `json:"commit,omitempty"`
	Version    string    `json:"version,omitempty"`
	Date       time.Time `json:"date,omitempty"`
	RepoURL    string    `json:"repo_url,omitempty"`
	CommitURL  string    `json:"commit_url,omitempty"`
	ReleaseURL string    `json:"release_url,omitempty"`
}

func (b Build) String() string {
	if b.Commit == "" {
		return b.Version
	}
	return fmt.Sprintf("%s (%s)", b.Version, b.Commit)
}
