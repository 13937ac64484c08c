package crawler

import (
	"time"

	"github.com/m-zajac/contribcount/internal/app"
)

// Config holds per platform crawl tuning.
type Config struct {
	// PageSize is the per_page value used for every listing call.
	PageSize int
	// BatchSize is the number of containers scanned concurrently.
	BatchSize int
	// Window is how far back commits are counted.
	Window time.Duration

	// ListPageDelay is the pause between container listing pages.
	ListPageDelay time.Duration
	// PageDelay is the pause between commit pages of a single container.
	PageDelay time.Duration
	// BatchDelay is the pause between batches.
	BatchDelay time.Duration

	NoContainersMessage   string
	NoContributorsMessage string
}

// DefaultConfig returns tuning matching platform's published rate limits.
// Gitlab allows more requests per minute, so it's crawled more aggressively.
func DefaultConfig(p app.Platform) Config {
	if p == app.PlatformGitlab {
		return Config{
			PageSize:              100,
			BatchSize:             20,
			Window:                90 * 24 * time.Hour,
			ListPageDelay:         100 * time.Millisecond,
			PageDelay:             100 * time.Millisecond,
			BatchDelay:            200 * time.Millisecond,
			NoContainersMessage:   "No projects found for this group. Please check the group name, URL, and your token permissions.",
			NoContributorsMessage: "No active contributors found in the last 90 days. This could be due to insufficient permissions or no recent activity.",
		}
	}

	return Config{
		PageSize:              100,
		BatchSize:             10,
		Window:                90 * 24 * time.Hour,
		ListPageDelay:         500 * time.Millisecond,
		PageDelay:             time.Second,
		BatchDelay:            2 * time.Second,
		NoContainersMessage:   "No repositories found for this organization.",
		NoContributorsMessage: "No active contributors found in the last 90 days.",
	}
}
