// Package crawler counts recently active contributors across all containers of an organization.
//
// The algorithm is shared by every platform: page through the container list, then scan containers'
// commit history in fixed size concurrent batches, summing commits per identity key.
// Platform differences are hidden behind app.Provider.
package crawler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m-zajac/contribcount/internal/app"
	"github.com/m-zajac/contribcount/internal/fetch"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Crawler runs a single platform crawl.
type Crawler struct {
	provider app.Provider
	conf     Config
	l        logrus.FieldLogger

	now   func() time.Time
	sleep func(context.Context, time.Duration) error
}

// New creates new Crawler instance.
func New(provider app.Provider, conf Config, l logrus.FieldLogger) *Crawler {
	if conf.PageSize < 1 {
		conf.PageSize = 100
	}
	if conf.BatchSize < 1 {
		conf.BatchSize = 1
	}

	return &Crawler{
		provider: provider,
		conf:     conf,
		l:        l,
		now:      time.Now,
		sleep:    fetch.Sleep,
	}
}

// Run crawls org and returns its contributors sorted by contributions, descending.
// report is called with a fresh progress snapshot after every change.
func (c *Crawler) Run(ctx context.Context, org string, report func(app.Progress)) ([]app.Contributor, error) {
	l := c.l.WithFields(logrus.Fields{
		"platform": c.provider.Platform(),
		"org":      org,
	})
	progress := &tracker{
		p:      app.Progress{Platform: c.provider.Platform()},
		report: report,
	}
	progress.update(func(*app.Progress) {})

	containers, err := c.listContainers(ctx, org, progress, l)
	if err != nil {
		return nil, err
	}
	if len(containers) == 0 {
		return nil, app.NoResultsError(c.conf.NoContainersMessage)
	}
	l.Infof("found %d containers, processing commits", len(containers))

	acc := newAccumulator()
	since := c.now().Add(-c.conf.Window)
	for start := 0; start < len(containers); start += c.conf.BatchSize {
		end := start + c.conf.BatchSize
		if end > len(containers) {
			end = len(containers)
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, container := range containers[start:end] {
			container := container
			g.Go(func() error {
				c.scan(gctx, org, container, since, acc, progress, l)
				return nil
			})
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		contributors := acc.len()
		progress.update(func(p *app.Progress) {
			p.Containers = end
			p.Contributors = contributors
		})

		if end < len(containers) {
			if err := c.sleep(ctx, c.conf.BatchDelay); err != nil {
				return nil, err
			}
		}
	}

	result := acc.sorted()
	if len(result) == 0 {
		return nil, app.NoResultsError(c.conf.NoContributorsMessage)
	}
	l.Infof("found %d active contributors", len(result))

	return result, nil
}

func (c *Crawler) listContainers(
	ctx context.Context,
	org string,
	progress *tracker,
	l logrus.FieldLogger,
) ([]app.Container, error) {
	var containers []app.Container
	for page := 1; ; page++ {
		cs, err := c.provider.ListContainers(ctx, org, page, c.conf.PageSize)
		if err != nil {
			return nil, err
		}
		containers = append(containers, cs...)
		l.Debugf("containers page %d: %d items, %d total", page, len(cs), len(containers))

		total := len(containers)
		progress.update(func(p *app.Progress) {
			p.Total = total
			p.Containers = total
		})

		if len(cs) < c.conf.PageSize {
			return containers, nil
		}
		if err := c.sleep(ctx, c.conf.ListPageDelay); err != nil {
			return nil, err
		}
	}
}

// scan counts container's commits. Failure skips the rest of this container only.
func (c *Crawler) scan(
	ctx context.Context,
	org string,
	container app.Container,
	since time.Time,
	acc *accumulator,
	progress *tracker,
	l logrus.FieldLogger,
) {
	progress.update(func(p *app.Progress) {
		p.Current = container.Name
	})

	for page := 1; ; page++ {
		commits, err := c.provider.ListCommits(ctx, org, container, since, page, c.conf.PageSize)
		if err != nil {
			l.WithField("container", container.Name).Warnf("skipping container: %v", err)
			return
		}
		for _, commit := range commits {
			if key, contributor, ok := c.provider.Identify(commit); ok {
				acc.add(key, contributor)
			}
		}

		if len(commits) < c.conf.PageSize {
			return
		}
		if err := c.sleep(ctx, c.conf.PageDelay); err != nil {
			return
		}
	}
}

// tracker serializes progress updates coming from concurrent scans.
type tracker struct {
	m      sync.Mutex
	p      app.Progress
	report func(app.Progress)
}

func (t *tracker) update(f func(*app.Progress)) {
	t.m.Lock()
	defer t.m.Unlock()

	f(&t.p)
	if t.report != nil {
		t.report(t.p)
	}
}

// ProviderBuilder creates a provider for given job request.
type ProviderBuilder func(req app.JobRequest) (app.Provider, error)

// Service dispatches job requests to registered platform crawlers.
type Service struct {
	builders map[app.Platform]ProviderBuilder
	configs  map[app.Platform]Config
	l        logrus.FieldLogger
}

// NewService creates new Service instance with no platforms registered.
func NewService(l logrus.FieldLogger) *Service {
	return &Service{
		builders: make(map[app.Platform]ProviderBuilder),
		configs:  make(map[app.Platform]Config),
		l:        l,
	}
}

// Register makes platform available for crawling.
func (s *Service) Register(platform app.Platform, builder ProviderBuilder, conf Config) {
	s.builders[platform] = builder
	s.configs[platform] = conf
}

// Crawl runs full crawl for req.
func (s *Service) Crawl(ctx context.Context, req app.JobRequest, report func(app.Progress)) ([]app.Contributor, error) {
	provider, err := s.provider(req)
	if err != nil {
		return nil, err
	}

	return New(provider, s.configs[req.Platform], s.l).Run(ctx, req.Org, report)
}

// Probe checks provider connectivity for req, listing first `count` containers.
func (s *Service) Probe(ctx context.Context, req app.JobRequest, count int) (*app.ProbeResult, error) {
	provider, err := s.provider(req)
	if err != nil {
		return nil, err
	}
	prober, ok := provider.(app.Prober)
	if !ok {
		return nil, app.InvalidRequestError(fmt.Sprintf("platform %s doesn't support probing", req.Platform))
	}

	return prober.Probe(ctx, req.Org, count)
}

func (s *Service) provider(req app.JobRequest) (app.Provider, error) {
	builder, ok := s.builders[req.Platform]
	if !ok {
		return nil, app.InvalidRequestError("Unknown platform")
	}
	provider, err := builder(req)
	if err != nil {
		return nil, fmt.Errorf("creating %s provider: %w", req.Platform, err)
	}

	return provider, nil
}
