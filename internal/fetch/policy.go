package fetch

import (
	"net/http"
	"strconv"
	"time"
)

// Policy describes how a provider signals rate limiting and how failed calls are retried.
type Policy struct {
	// Provider is the human readable provider name used in error messages.
	Provider string

	RemainingHeader string
	ResetHeader     string

	// HardLimitStatus is a status code that always means "rate limited" (0 if the provider has none).
	HardLimitStatus int

	// RetryDelay is the pause after a transport failure before the next attempt.
	RetryDelay time.Duration
}

// GithubPolicy returns rate limit policy for github rest api.
func GithubPolicy() Policy {
	return Policy{
		Provider:        "GitHub",
		RemainingHeader: "X-RateLimit-Remaining",
		ResetHeader:     "X-RateLimit-Reset",
		RetryDelay:      time.Second,
	}
}

// GitlabPolicy returns rate limit policy for gitlab rest api v4.
func GitlabPolicy() Policy {
	return Policy{
		Provider:        "GitLab",
		RemainingHeader: "RateLimit-Remaining",
		ResetHeader:     "RateLimit-Reset",
		HardLimitStatus: http.StatusTooManyRequests,
		RetryDelay:      100 * time.Millisecond,
	}
}

// RateLimited tells if response signals exhausted quota.
func (p Policy) RateLimited(statusCode int, h http.Header) bool {
	if p.HardLimitStatus != 0 && statusCode == p.HardLimitStatus {
		return true
	}

	return statusCode == http.StatusForbidden && h.Get(p.RemainingHeader) == "0"
}

// WaitTime returns how long to wait before the quota resets, plus one second of margin.
// Missing or malformed reset header is treated as an immediate reset.
func (p Policy) WaitTime(h http.Header, now time.Time) time.Duration {
	const margin = time.Second

	reset, err := strconv.ParseInt(h.Get(p.ResetHeader), 10, 64)
	if err != nil {
		return margin
	}

	wait := time.Unix(reset, 0).Sub(now)
	if wait < 0 {
		wait = 0
	}

	return wait + margin
}

// ResetTime returns quota reset time from response headers, zero time if unknown.
func (p Policy) ResetTime(h http.Header) time.Time {
	reset, err := strconv.ParseInt(h.Get(p.ResetHeader), 10, 64)
	if err != nil {
		return time.Time{}
	}

	return time.Unix(reset, 0)
}
