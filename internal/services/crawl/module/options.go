package module

import (
	"time"

	"nhldata/internal/platform/config"
	"nhldata/internal/services/crawl/sink"
)

// Options holds configuration for the crawl module
// env tags name the variable in validation messages
type Options struct {
	BaseURL     string        `env:"CRAWL_API_BASE_URL" validate:"required,url"`
	Timeout     time.Duration `env:"CRAWL_HTTP_TIMEOUT" validate:"gt=0"`
	MaxAttempts int           `env:"CRAWL_HTTP_MAX_ATTEMPTS" validate:"min=1,max=20"`
	RetryBase   time.Duration `env:"CRAWL_HTTP_RETRY_BASE" validate:"gt=0"`
	RetryCap    time.Duration `env:"CRAWL_HTTP_RETRY_CAP" validate:"gtefield=RetryBase"`
	RateLimit   float64       `env:"CRAWL_HTTP_RATE" validate:"gte=0"`
	Burst       int           `env:"CRAWL_HTTP_BURST" validate:"min=1"`

	Concurrency  int           `env:"CRAWL_CONCURRENCY" validate:"min=1,max=64"`
	RunTimeout   time.Duration `env:"CRAWL_RUN_TIMEOUT" validate:"gte=0"`
	GameTimeout  time.Duration `env:"CRAWL_GAME_TIMEOUT" validate:"gte=0"`
	FetchTimeout time.Duration `env:"CRAWL_FETCH_TIMEOUT" validate:"gte=0"`
	StoreTimeout time.Duration `env:"CRAWL_STORE_TIMEOUT" validate:"gte=0"`
	StoreRetries int           `env:"CRAWL_STORE_RETRIES" validate:"min=1,max=10"`

	Prefix    string `env:"CRAWL_SINK_PREFIX"`
	Collision string `env:"CRAWL_SINK_COLLISION" validate:"oneof=overwrite fail-on-exists"`

	Bucket    string `env:"CRAWL_S3_BUCKET" validate:"required"`
	Endpoint  string `env:"CRAWL_S3_ENDPOINT" validate:"omitempty,url"`
	Region    string `env:"CRAWL_S3_REGION" validate:"required"`
	PathStyle bool   `env:"CRAWL_S3_PATH_STYLE"`
	Probe     bool   `env:"CRAWL_S3_PROBE"`

	CacheURL string        `env:"CRAWL_CACHE_URL" validate:"omitempty,url"`
	CacheTTL time.Duration `env:"CRAWL_CACHE_TTL" validate:"gte=0"`

	LedgerDSN string `env:"CRAWL_LEDGER_DSN"`

	MetricsPushURL string `env:"CRAWL_METRICS_PUSH_URL" validate:"omitempty,url"`
	MetricsJob     string `env:"CRAWL_METRICS_JOB"`
}

// FromConfig reads the crawl options from config with CRAWL_ prefix
// bucket and endpoint fall back to the unprefixed DEST_BUCKET and S3_ENDPOINT_URL
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("CRAWL_")
	return Options{
		BaseURL:     c.MayString("API_BASE_URL", "https://statsapi.web.nhl.com/api/v1"),
		Timeout:     c.MayDuration("HTTP_TIMEOUT", 10*time.Second),
		MaxAttempts: c.MayInt("HTTP_MAX_ATTEMPTS", 5),
		RetryBase:   c.MayDuration("HTTP_RETRY_BASE", 500*time.Millisecond),
		RetryCap:    c.MayDuration("HTTP_RETRY_CAP", 30*time.Second),
		RateLimit:   c.MayFloat64("HTTP_RATE", 0),
		Burst:       c.MayInt("HTTP_BURST", 1),

		Concurrency:  c.MayInt("CONCURRENCY", 8),
		RunTimeout:   c.MayDuration("RUN_TIMEOUT", 0),
		GameTimeout:  c.MayDuration("GAME_TIMEOUT", 2*time.Minute),
		FetchTimeout: c.MayDuration("FETCH_TIMEOUT", 0),
		StoreTimeout: c.MayDuration("STORE_TIMEOUT", 30*time.Second),
		StoreRetries: c.MayInt("STORE_RETRIES", 3),

		Prefix:    c.MayString("SINK_PREFIX", ""),
		Collision: c.MayEnum("SINK_COLLISION", string(sink.PolicyOverwrite), string(sink.PolicyOverwrite), string(sink.PolicyFailOnExists)),

		Bucket:    cfg.MayFirst("output", "CRAWL_S3_BUCKET", "DEST_BUCKET"),
		Endpoint:  cfg.MayFirst("", "CRAWL_S3_ENDPOINT", "S3_ENDPOINT_URL"),
		Region:    c.MayString("S3_REGION", "us-east-1"),
		PathStyle: c.MayBool("S3_PATH_STYLE", false),
		Probe:     c.MayBool("S3_PROBE", true),

		CacheURL: c.MayString("CACHE_URL", ""),
		CacheTTL: c.MayDuration("CACHE_TTL", 24*time.Hour),

		LedgerDSN: c.MayString("LEDGER_DSN", ""),

		MetricsPushURL: c.MayString("METRICS_PUSH_URL", ""),
		MetricsJob:     c.MayString("METRICS_JOB", "nhldata_crawl"),
	}
}
