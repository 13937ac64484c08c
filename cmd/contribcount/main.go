package main

import (
	"context"
	netHttp "net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/kelseyhightower/envconfig"
	"github.com/m-zajac/contribcount/internal/adapter/cache"
	"github.com/m-zajac/contribcount/internal/adapter/github"
	"github.com/m-zajac/contribcount/internal/adapter/gitlab"
	"github.com/m-zajac/contribcount/internal/api/grpc"
	"github.com/m-zajac/contribcount/internal/api/http"
	"github.com/m-zajac/contribcount/internal/api/http/limiter"
	"github.com/m-zajac/contribcount/internal/app"
	"github.com/m-zajac/contribcount/internal/crawler"
	"github.com/m-zajac/contribcount/internal/database"
	"github.com/m-zajac/contribcount/internal/fetch"
	"github.com/m-zajac/contribcount/internal/jobs"
	"github.com/sirupsen/logrus"
)

func main() {
	l := logrus.New()
	l.Level = logrus.InfoLevel

	var conf Config
	if err := envconfig.Process("", &conf); err != nil {
		l.Fatalf("couldn't parse config: %v", err)
	}
	level, err := logrus.ParseLevel(conf.LogLevel)
	if err != nil {
		l.Fatalf("invalid log level: %v", err)
	}
	l.Level = level

	httpClient := &netHttp.Client{
		Timeout: conf.HTTPClientTimeout,
	}
	limitedHTTPClient := limiter.NewHTTPDoer(
		httpClient,
		conf.OutboundRateLimit,
		1,
	)
	fetcher := fetch.NewClient(limitedHTTPClient, l.WithField("component", "fetch"))

	var kvStore cache.KVStore
	if conf.CacheDBPath != "" {
		boltStore, err := database.NewBoltKVStore(
			conf.CacheDBPath,
			conf.CacheDBBucketName,
		)
		if err != nil {
			l.Fatalf("couldn't create bolt kv store: %v", err)
		}
		defer boltStore.Close()
		kvStore = boltStore
	}
	cacheLogger := l.WithField("component", "containerCache")
	withCache := func(p app.Provider, baseURL string, token string) app.Provider {
		if kvStore == nil {
			return p
		}
		return cache.NewContainerCache(p, kvStore, baseURL, token, conf.CacheTTL, cacheLogger)
	}

	crawlerService := crawler.NewService(l.WithField("component", "crawler"))
	crawlerService.Register(
		app.PlatformGithub,
		func(req app.JobRequest) (app.Provider, error) {
			c := github.NewClient(fetcher, conf.GithubAPIAddress, req.Token, conf.FetchMaxRetries).
				WithRetryDelay(conf.GithubRetryDelay)
			return withCache(c, conf.GithubAPIAddress, req.Token), nil
		},
		crawlerConfig(app.PlatformGithub, conf),
	)
	crawlerService.Register(
		app.PlatformGitlab,
		func(req app.JobRequest) (app.Provider, error) {
			c := gitlab.NewClient(fetcher, req.URL, req.Token, conf.FetchMaxRetries).
				WithRetryDelay(conf.GitlabRetryDelay)
			return withCache(c, req.URL, req.Token), nil
		},
		crawlerConfig(app.PlatformGitlab, conf),
	)

	store, err := jobs.NewMemoryStore(conf.JobStoreSize, conf.JobTTL)
	if err != nil {
		l.Fatalf("couldn't create job store: %v", err)
	}
	manager := jobs.NewManager(store, crawlerService, l.WithField("component", "jobs"))
	defer manager.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mux := http.NewMux(manager, conf.RequestTimeout, l.WithField("component", "mux"))
	server := http.NewServer(
		conf.HTTPServerAddress,
		conf.HTTPProfileServerAddress,
		mux,
		l.WithField("component", "httpServer"),
	)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		server.Run(ctx)
		wg.Done()
	}()

	if conf.GRPCServerAddress != "" {
		grpcServer := grpc.NewServer(
			grpc.NewService(manager),
			conf.GRPCServerAddress,
			l.WithField("component", "grpcServer"),
		)
		wg.Add(1)
		go func() {
			if err := grpcServer.Run(ctx); err != nil {
				l.Errorf("couldn't run grpc server: %v", err)
				stop()
			}
			wg.Done()
		}()
	}

	wg.Wait()
	l.Info("shutting down, waiting for running jobs")
}

func crawlerConfig(p app.Platform, conf Config) crawler.Config {
	c := crawler.DefaultConfig(p)
	c.PageSize = conf.PageSize
	c.Window = conf.ActivityWindow

	switch p {
	case app.PlatformGithub:
		c.BatchSize = conf.GithubBatchSize
		c.PageDelay = conf.GithubPageDelay
		c.ListPageDelay = conf.GithubListPageDelay
		c.BatchDelay = conf.GithubBatchDelay
	case app.PlatformGitlab:
		c.BatchSize = conf.GitlabBatchSize
		c.PageDelay = conf.GitlabPageDelay
		c.ListPageDelay = conf.GitlabListPageDelay
		c.BatchDelay = conf.GitlabBatchDelay
	}

	return c
}
