package cache

import (
	"time"

	"github.com/okian/sportplanner/pkg/logger"
)

type config struct {
	maxSize   int
	ttl       time.Duration
	keyPrefix string
	now       func() time.Time
	log       logger.Logger
}

func newConfig(opts []Option) config {
	c := config{
		maxSize:   DefaultMaxSize,
		ttl:       DefaultTTL,
		keyPrefix: "sportplanner:proposal:",
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if c.log == nil {
		c.log = logger.Named("cache")
	}
	return c
}

// Option configures a cache.
type Option func(*config)

// WithMaxSize bounds the memory cache. When full the oldest entry is
// evicted. 0 or less means unbounded. Ignored by Redis.
func WithMaxSize(maxSize int) Option {
	return func(c *config) {
		c.maxSize = maxSize
	}
}

// WithTTL sets how long an entry stays fresh. 0 or less disables expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) {
		c.ttl = ttl
	}
}

// WithKeyPrefix sets the Redis key prefix.
func WithKeyPrefix(prefix string) Option {
	return func(c *config) {
		c.keyPrefix = prefix
	}
}

// WithClock replaces the clock used for memory expiry.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *config) {
		c.log = l
	}
}
