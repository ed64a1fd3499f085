package learnsdk

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/learnhub/pkg/slogx"
	"golang.org/x/time/rate"
)

const (
	defaultTimeout        = 10 * time.Second
	defaultAccessCacheTTL = 30 * time.Second
)

// Config configures a SessionManager. Only BaseURL is required.
type Config struct {
	BaseURL string

	// HTTPClient is used for every call. It is owned by the manager and must
	// not be shared with code that installs its own auth. Default: 10s timeout.
	HTTPClient *http.Client

	// Store defaults to a MemoryTokenStore.
	Store TokenStore

	// Flags defaults to a MemoryFlagStore.
	Flags FlagStore

	// Logger defaults to a discarding logger.
	Logger *slog.Logger

	// Metrics is optional.
	Metrics *Metrics

	// RateLimit throttles outbound calls when > 0.
	RateLimit rate.Limit
	Burst     int

	// AccessCacheTTL bounds how long an AccessDecision is reused. Default: 30s.
	AccessCacheTTL time.Duration

	// OnSessionExpired runs after an irrecoverable refresh failure has cleared
	// the session. It must not block.
	OnSessionExpired func()
}

func (c Config) withDefaults() Config {
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if c.Store == nil {
		c.Store = NewMemoryTokenStore()
	}
	if c.Flags == nil {
		c.Flags = NewMemoryFlagStore()
	}
	if c.Logger == nil {
		c.Logger = slogx.Discard()
	}
	if c.AccessCacheTTL <= 0 {
		c.AccessCacheTTL = defaultAccessCacheTTL
	}
	if c.RateLimit > 0 && c.Burst <= 0 {
		c.Burst = 1
	}
	return c
}
