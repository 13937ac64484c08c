package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/m-zajac/contribcount/internal/app"
	"github.com/m-zajac/contribcount/internal/fetch"
)

// Fetcher executes rate limit aware api calls.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string, header http.Header, maxRetries int, policy fetch.Policy) (*fetch.Response, error)
}

// Client lists gitlab group projects and their commits.
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

// NewClient creates new gitlab client.
// instanceURL is the gitlab instance root, like https://gitlab.com.
func NewClient(fetcher Fetcher, instanceURL string, authToken string, maxRetries int) *Client {
	return &Client{
		fetcher:    fetcher,
		address:    strings.TrimRight(instanceURL, "/") + "/api/v4",
		authToken:  authToken,
		maxRetries: maxRetries,
		policy:     fetch.GitlabPolicy(),
	}
}

// WithRetryDelay overrides the pause between attempts after transport failures.
func (c *Client) WithRetryDelay(d time.Duration) *Client {
	if d > 0 {
		c.policy.RetryDelay = d
	}
	return c
}

// Platform returns app.PlatformGitlab.
func (c *Client) Platform() app.Platform {
	return app.PlatformGitlab
}

// ListContainers returns one page of group's projects.
// Authorization and lookup failures are translated to actionable messages.
func (c *Client) ListContainers(ctx context.Context, group string, page int, perPage int) ([]app.Container, error) {
	resp, err := c.listProjects(ctx, group, page, perPage)
	if err != nil {
		return nil, err
	}

	var projects projectsResponse
	if err := jsoniter.Unmarshal(resp.Body, &projects); err != nil {
		return nil, fmt.Errorf("unmarshalling projects page %d: %w", page, err)
	}

	return projects.ToContainers(), nil
}

// ListCommits returns one page of project's commits since given time.
func (c *Client) ListCommits(
	ctx context.Context,
	group string,
	container app.Container,
	since time.Time,
	page int,
	perPage int,
) ([]app.Commit, error) {
	u, err := url.Parse(c.address + fmt.Sprintf("/projects/%s/repository/commits", escapeSegment(container.ID)))
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

// Identify keys contributors by author email.
// Gitlab commits don't reliably link to user accounts, so email is the most stable identity.
func (c *Client) Identify(commit app.Commit) (string, app.Contributor, bool) {
	if commit.AuthorEmail == "" {
		return "", app.Contributor{}, false
	}

	name := commit.AuthorName
	if name == "" {
		name = commit.AuthorEmail
	}

	return commit.AuthorEmail, app.Contributor{
		Username: name,
		Name:     name,
		Email:    commit.AuthorEmail,
	}, true
}

// Probe fetches first `count` projects and reports rate limit headers.
func (c *Client) Probe(ctx context.Context, group string, count int) (*app.ProbeResult, error) {
	resp, err := c.listProjects(ctx, group, 1, count)
	if err != nil {
		return nil, err
	}

	var projects projectsResponse
	if err := jsoniter.Unmarshal(resp.Body, &projects); err != nil {
		return nil, fmt.Errorf("unmarshalling projects: %w", err)
	}

	return &app.ProbeResult{
		Platform:   app.PlatformGitlab,
		Org:        group,
		Containers: projects.ToContainers(),
		RateLimit: app.RateLimit{
			Remaining: resp.Header.Get(c.policy.RemainingHeader),
			Reset:     resp.Header.Get(c.policy.ResetHeader),
			Link:      resp.Header.Get("Link"),
		},
	}, nil
}

func (c *Client) listProjects(ctx context.Context, group string, page int, perPage int) (*fetch.Response, error) {
	if group == "" {
		return nil, app.InvalidRequestError("group cannot be empty")
	}

	u, err := url.Parse(c.address + fmt.Sprintf("/groups/%s/projects", escapeSegment(group)))
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	v := make(url.Values)
	v.Set("per_page", strconv.Itoa(perPage))
	v.Set("page", strconv.Itoa(page))
	u.RawQuery = v.Encode()

	resp, err := c.fetcher.Fetch(ctx, u.String(), c.headers(), c.maxRetries, c.policy)
	if err != nil {
		return nil, translateGroupError(err)
	}

	return resp, nil
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	if c.authToken != "" {
		h.Set("PRIVATE-TOKEN", c.authToken)
	}

	return h
}

// escapeSegment escapes s as a single path segment. Group paths like "a/b" become "a%2Fb".
func escapeSegment(s string) string {
	return url.PathEscape(s)
}
