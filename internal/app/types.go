package app

import (
	"time"

	jsoniter "github.com/json-iterator/go"
)

// Platform identifies a source-control provider.
type Platform string

// Supported platforms.
const (
	PlatformGithub Platform = "github"
	PlatformGitlab Platform = "gitlab"
)

// JobStatus is a job lifecycle state.
type JobStatus string

// Job states. Complete and Error are terminal.
const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusComplete   JobStatus = "complete"
	StatusError      JobStatus = "error"
)

// Terminal tells if no further transitions are possible from this status.
func (s JobStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Container is a single repository (github) or project (gitlab).
type Container struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Commit holds the authorship fields of a single commit, normalized across providers.
type Commit struct {
	AuthorLogin string
	AuthorName  string
	AuthorEmail string
	AvatarURL   string
}

// Contributor entity
type Contributor struct {
	Username      string `json:"username"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Contributions int    `json:"contributions"`
	AvatarURL     string `json:"avatar_url,omitempty"`
}

// Result is the final outcome of a complete job.
type Result struct {
	Contributors []Contributor `json:"contributors"`
	Org          string        `json:"org"`
	Platform     Platform      `json:"platform"`
}

// Progress is a snapshot of a running crawl.
// Its json shape depends on the platform: github reports repos, gitlab reports projects.
type Progress struct {
	Platform     Platform
	Containers   int
	Total        int
	Current      string
	Contributors int
}

type githubProgress struct {
	Repos        int    `json:"repos"`
	TotalRepos   int    `json:"totalRepos"`
	CurrentRepo  string `json:"currentRepo"`
	Contributors int    `json:"contributors"`
}

type gitlabProgress struct {
	Projects       int    `json:"projects"`
	TotalProjects  int    `json:"totalProjects"`
	CurrentProject string `json:"currentProject"`
	Contributors   int    `json:"contributors"`
}

// MarshalJSON implements json.Marshaler.
func (p Progress) MarshalJSON() ([]byte, error) {
	if p.Platform == PlatformGitlab {
		return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(gitlabProgress{
			Projects:       p.Containers,
			TotalProjects:  p.Total,
			CurrentProject: p.Current,
			Contributors:   p.Contributors,
		})
	}

	return jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(githubProgress{
		Repos:        p.Containers,
		TotalRepos:   p.Total,
		CurrentRepo:  p.Current,
		Contributors: p.Contributors,
	})
}

// JobRequest holds the immutable parameters of a job.
type JobRequest struct {
	Org      string   `json:"org" validate:"required"`
	Platform Platform `json:"platform" validate:"required,oneof=github gitlab"`
	Token    string   `json:"token"`
	URL      string   `json:"url" validate:"required_if=Platform gitlab"`
}

// JobSnapshot is a consistent, read-only copy of a job record.
type JobSnapshot struct {
	ID       string
	Status   JobStatus
	Org      string
	Platform Platform
	URL      string
	Started  time.Time
	Finished time.Time
	Progress *Progress
	Result   *Result
	Error    string
}
