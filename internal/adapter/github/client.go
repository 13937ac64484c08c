package github

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/m-zajac/contribcount/internal/app"
	"github.com/m-zajac/contribcount/internal/fetch"
)

// Fetcher executes rate limit aware api calls.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, header http.Header, maxRetries int, policy fetch.Policy) (*fetch.Response, error)
}

// Client lists github organization repositories and their commits.
// This struct is an adapter for app.Provider.
type Client struct {
	fetcher    Fetcher
	address    string
	authToken  string
	maxRetries int
	policy     fetch.Policy
}

var (
	_ app.Provider = &Client{}
	_ app.Prober   = &Client{}
)

// NewClient creates new github client.
// authToken is optional.
func NewClient(fetcher Fetcher, address string, authToken string, maxRetries int) *Client {
	return &Client{
		fetcher:    fetcher,
		address:    address,
		authToken:  authToken,
		maxRetries: maxRetries,
		policy:     fetch.GithubPolicy(),
	}
}

// WithRetryDelay overrides the pause between attempts after transport failures.
func (c *Client) WithRetryDelay(d time.Duration) *Client {
	if d > 0 {
		c.policy.RetryDelay = d
	}
	return c
}

// Platform returns app.PlatformGithub.
func (c *Client) Platform() app.Platform {
	return app.PlatformGithub
}

// ListContainers returns one page of organization's repositories.
func (c *Client) ListContainers(ctx context.Context, org string, page int, perPage int) ([]app.Container, error) {
	resp, err := c.listRepos(ctx, org, page, perPage)
	if err != nil {
		return nil, err
	}

	var repos reposResponse
	if err := jsoniter.Unmarshal(resp.Body, &repos); err != nil {
		return nil, fmt.Errorf("unmarshalling repositories page %d: %w", page, err)
	}

	return repos.ToContainers(), nil
}

// ListCommits returns one page of repository commits since given time.
func (c *Client) ListCommits(
	ctx context.Context,
	org string,
	container app.Container,
	since time.Time,
	page int,
	perPage int,
) ([]app.Commit, error) {
	u, err := url.Parse(c.address + fmt.Sprintf("/repos/%s/%s/commits", url.PathEscape(org), url.PathEscape(container.Name)))
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	v := make(url.Values)
	v.Set("per_page", strconv.Itoa(perPage))
	v.Set("page", strconv.Itoa(page))
	v.Set("since", since.UTC().Format(time.RFC3339))
	u.RawQuery = v.Encode()

	resp, err := c.fetcher.Fetch(ctx, u.String(), c.headers(), c.maxRetries, c.policy)
	if err != nil {
		return nil, err
	}

	var commits commitsResponse
	if err := jsoniter.Unmarshal(resp.Body, &commits); err != nil {
		return nil, fmt.Errorf("unmarshalling commits page %d: %w", page, err)
	}

	return commits.ToCommits(), nil
}

// Identify keys contributors by github login.
// Commits whose author isn't linked to a github account are skipped.
func (c *Client) Identify(commit app.Commit) (string, app.Contributor, bool) {
	if commit.AuthorLogin == "" {
		return "", app.Contributor{}, false
	}

	name := commit.AuthorName
	if name == "" {
		name = commit.AuthorLogin
	}

	return commit.AuthorLogin, app.Contributor{
		Username:  commit.AuthorLogin,
		Name:      name,
		Email:     commit.AuthorEmail,
		AvatarURL: commit.AvatarURL,
	}, true
}

// Probe fetches first `count` repositories and reports rate limit headers.
func (c *Client) Probe(ctx context.Context, org string, count int) (*app.ProbeResult, error) {
	resp, err := c.listRepos(ctx, org, 1, count)
	if err != nil {
		return nil, err
	}

	var repos reposResponse
	if err := jsoniter.Unmarshal(resp.Body, &repos); err != nil {
		return nil, fmt.Errorf("unmarshalling repositories: %w", err)
	}

	return &app.ProbeResult{
		Platform:   app.PlatformGithub,
		Org:        org,
		Containers: repos.ToContainers(),
		RateLimit: app.RateLimit{
			Remaining: resp.Header.Get(c.policy.RemainingHeader),
			Reset:     resp.Header.Get(c.policy.ResetHeader),
			Link:      resp.Header.Get("Link"),
		},
	}, nil
}

func (c *Client) listRepos(ctx context.Context, org string, page int, perPage int) (*fetch.Response, error) {
	if org == "" {
		return nil, app.InvalidRequestError("organization cannot be empty")
	}

	u, err := url.Parse(c.address + fmt.Sprintf("/orgs/%s/repos", url.PathEscape(org)))
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	v := make(url.Values)
	v.Set("per_page", strconv.Itoa(perPage))
	v.Set("page", strconv.Itoa(page))
	u.RawQuery = v.Encode()

	resp, err := c.fetcher.Fetch(ctx, u.String(), c.headers(), c.maxRetries, c.policy)
	if err != nil {
		return nil, err
	}

	// Github may answer with an error object instead of a list.
	if body := bytes.TrimSpace(resp.Body); len(body) > 0 && body[0] == '{' {
		var e errorResponse
		if err := jsoniter.Unmarshal(body, &e); err == nil && e.Message != "" {
			return nil, fmt.Errorf("GitHub API error: %s", e.Message)
		}
		return nil, fmt.Errorf("unexpected repositories response on page %d", page)
	}

	return resp, nil
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Accept", "application/vnd.github.v3+json")
	if c.authToken != "" {
		h.Set("Authorization", "Bearer "+c.authToken)
	}

	return h
}
