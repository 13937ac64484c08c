// Package limiter caps the rate of outbound provider requests for the whole process.
package limiter

import (
	"fmt"
	"net/http"

	"github.com/m-zajac/contribcount/internal/app"
	"golang.org/x/time/rate"
)

// HTTPDoer can execute http request.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// LimitedHTTPDoer wraps HTTPDoer and allows Dos with maximum rate limit.
// All jobs share one instance, so provider quotas are spent at a bounded pace no matter how many jobs run.
type LimitedHTTPDoer struct {
	doer    HTTPDoer
	limiter *rate.Limiter
}

// NewHTTPDoer creates LimitedHTTPDoer instance.
// maxRate - maximum number of Dos per second, burst - number of Dos allowed at once.
// Non-positive maxRate disables limiting.
func NewHTTPDoer(doer HTTPDoer, maxRate float64, burst int) *LimitedHTTPDoer {
	limit := rate.Limit(maxRate)
	if maxRate <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}

	return &LimitedHTTPDoer{
		doer:    doer,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Do executes http request. If limit is exceeded, blocks until call rate is within limit or request context is done.
func (d *LimitedHTTPDoer) Do(r *http.Request) (*http.Response, error) {
	if err := d.limiter.Wait(r.Context()); err != nil {
		return nil, app.TooManyRequestsError(fmt.Sprintf("waiting for outbound request slot: %v", err))
	}

	return d.doer.Do(r)
}
