package app

import (
	"context"
	"time"
)

// Provider adapts a single source-control platform to the crawl algorithm.
//go:generate mockgen -destination mock/provider.go -package mock github.com/m-zajac/contribcount/internal/app Provider
type Provider interface {
	// Platform returns the platform this provider talks to.
	Platform() Platform

	// ListContainers returns one page of the organization's repositories or group's projects.
	ListContainers(ctx context.Context, org string, page int, perPage int) ([]Container, error)

	// ListCommits returns one page of container's commits authored since given time.
	ListCommits(ctx context.Context, org string, container Container, since time.Time, page int, perPage int) ([]Commit, error)

	// Identify returns identity key and a fresh contributor record for commit's author.
	// Returns false if commit lacks the author field the platform keys identities by.
	Identify(commit Commit) (key string, contributor Contributor, ok bool)
}

// Prober can inspect provider connectivity without running a full crawl.
type Prober interface {
	Probe(ctx context.Context, org string, count int) (*ProbeResult, error)
}

// ProbeResult is a small sample of containers plus rate limit state observed on the call.
type ProbeResult struct {
	Platform   Platform    `json:"platform"`
	Org        string      `json:"org"`
	Containers []Container `json:"containers"`
	RateLimit  RateLimit   `json:"rateLimit"`
}

// RateLimit holds raw rate limit headers returned by provider.
type RateLimit struct {
	Remaining string `json:"remaining"`
	Reset     string `json:"reset"`
	Link      string `json:"link,omitempty"`
}
