package directory

import (
	"github.com/O-HAM-MA/apartner-sub000/pkg/config"
	"github.com/O-HAM-MA/apartner-sub000/pkg/logger"
)

// NewFromConfig builds the directory used by the SSE adapter: an HTTP client
// with a TTL cache when a base URL is configured, otherwise a permissive
// static directory for local development.
func NewFromConfig(cfg config.DirectoryConfig) Directory {
	if cfg.BaseURL == "" {
		logger.Warnf("directory: no base_url configured, resolving all users with bare USER identity")
		return NewStaticDirectory().AllowUnknown()
	}
	return NewCachedDirectory(NewHTTPDirectory(cfg), cfg.CacheTTL)
}
