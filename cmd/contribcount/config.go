package main

import "time"

// Config is the container for app configuration
type Config struct {
	// HTTPServerAddress - listen address for http server
	HTTPServerAddress string `default:"0.0.0.0:3001"`

	// HTTPProfileServerAddress - listen address for profiler http server. If empty, profiler server is disabled
	HTTPProfileServerAddress string `default:""`

	// GRPCServerAddress - listen address for grpc server. If empty, grpc server is disabled
	GRPCServerAddress string `default:""`

	// RequestTimeout - timeout for a single api request handling. Doesn't limit background jobs
	RequestTimeout time.Duration `default:"30s"`

	// LogLevel - logrus level name
	LogLevel string `default:"info"`

	// GithubAPIAddress - address for github rest api with protocol
	GithubAPIAddress string `default:"https://api.github.com"`

	// OutboundRateLimit - max frequency of provider api calls per second, shared by all jobs. Zero disables the limit
	OutboundRateLimit float64 `default:"10"`

	// HTTPClientTimeout - timeout for a single provider api call
	HTTPClientTimeout time.Duration `default:"30s"`

	// FetchMaxRetries - attempts per provider api call on transport failures
	FetchMaxRetries int `default:"3"`

	// Github crawl tuning
	GithubBatchSize     int           `default:"10"`
	GithubPageDelay     time.Duration `default:"1s"`
	GithubListPageDelay time.Duration `default:"500ms"`
	GithubBatchDelay    time.Duration `default:"2s"`
	GithubRetryDelay    time.Duration `default:"1s"`

	// Gitlab crawl tuning
	GitlabBatchSize     int           `default:"20"`
	GitlabPageDelay     time.Duration `default:"100ms"`
	GitlabListPageDelay time.Duration `default:"100ms"`
	GitlabBatchDelay    time.Duration `default:"200ms"`
	GitlabRetryDelay    time.Duration `default:"100ms"`

	// ActivityWindow - how far back commits are counted
	ActivityWindow time.Duration `default:"2160h"`

	// PageSize - per page value for provider listings
	PageSize int `default:"100"`

	// JobStoreSize - maximum number of job records kept in memory
	JobStoreSize int `default:"10000"`

	// JobTTL - lifetime of finished job records. Zero keeps them until evicted by JobStoreSize
	JobTTL time.Duration `default:"0"`

	// CacheDBPath - filepath for bolt db container cache. If empty, cache is disabled
	CacheDBPath string `default:""`

	// CacheDBBucketName - bolt db bucket name
	CacheDBBucketName string `default:"containers"`

	// CacheTTL - maximum lifetime for cached container listings
	CacheTTL time.Duration `default:"10m"`
}
