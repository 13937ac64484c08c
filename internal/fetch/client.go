// Package fetch is the single chokepoint for outbound provider api calls.
// It detects provider rate limiting, waits for quota reset and retries transport failures.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// HTTPDoer can execute http request.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Response is a fully read provider response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// StatusError is returned for non-success http statuses that are not rate limiting.
type StatusError struct {
	Provider   string
	StatusCode int
}

// Error implements error interface
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API request failed: %d %s", e.Provider, e.StatusCode, http.StatusText(e.StatusCode))
}

// StatusCodeOf returns status code of a StatusError found in err's chain, 0 otherwise.
func StatusCodeOf(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}

	return 0
}

// Client executes provider api calls.
type Client struct {
	doer        HTTPDoer
	maxBodySize int64
	l           logrus.FieldLogger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// NewClient creates new fetch client.
func NewClient(doer HTTPDoer, l logrus.FieldLogger) *Client {
	return &Client{
		doer:        doer,
		maxBodySize: 1024 * 1024 * 30,
		l:           l,
		now:         time.Now,
		sleep:       Sleep,
	}
}

// Fetch executes GET request for rawURL with given headers.
//
// Rate limited responses are waited out and the same request is issued again, without using up a retry.
// Transport failures are retried up to maxRetries attempts in total, pausing policy.RetryDelay between attempts.
// Other non-success statuses return *StatusError immediately.
func (c *Client) Fetch(
	ctx context.Context,
	rawURL string,
	header http.Header,
	maxRetries int,
	policy Policy,
) (*Response, error) {
	if maxRetries < 1 {
		maxRetries = 1
	}

	var failures int
	for {
		resp, err := c.do(ctx, rawURL, header)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			failures++
			if failures >= maxRetries {
				return nil, fmt.Errorf("%s request failed after %d attempts: %w", policy.Provider, failures, err)
			}
			c.l.Infof("%s request failed, retrying in %v: %v", policy.Provider, policy.RetryDelay, err)
			if err := c.sleep(ctx, policy.RetryDelay); err != nil {
				return nil, err
			}
			continue
		}

		if policy.RateLimited(resp.StatusCode, resp.Header) {
			wait := policy.WaitTime(resp.Header, c.now())
			c.l.WithField("reset", policy.ResetTime(resp.Header)).
				Warnf("%s rate limit hit, waiting %v", policy.Provider, wait)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		if resp.StatusCode/100 != 2 {
			return nil, &StatusError{
				Provider:   policy.Provider,
				StatusCode: resp.StatusCode,
			}
		}

		return resp, nil
	}
}

func (c *Client) do(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating http request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, cleanHeaderValue(v))
		}
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, fmt.Errorf("doing http request: %w", err)
	}
	// Always drain body before close to allow connection reuse.
	defer func() {
		_, _ = io.CopyN(io.Discard, resp.Body, 1024)
		resp.Body.Close()
	}()

	b, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("reading http response body: %w", err)
	}
	if int64(len(b)) > c.maxBodySize {
		return nil, fmt.Errorf("response body exceeds %d bytes", c.maxBodySize)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       b,
	}, nil
}

// cleanHeaderValue trims value and drops bytes outside printable ascii.
// Tokens pasted from browsers often carry trailing newlines or zero-width characters.
func cleanHeaderValue(v string) string {
	v = strings.TrimSpace(v)

	return strings.Map(func(r rune) rune {
		if r < 0x20 || r > 0x7e {
			return -1
		}
		return r
	}, v)
}

// Sleep pauses for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
