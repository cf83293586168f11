// Package constants defines shared constants for the staleweb service.
package constants

// ServiceName identifies this service in logs, traces and metrics.
const ServiceName = "staleweb"

// EnvPrefix is the prefix for configuration environment variables.
const EnvPrefix = "STALEWEB"

// ErrorCode is a stable, machine-readable error classification.
type ErrorCode string

const (
	ErrCodeInternal       ErrorCode = "internal_error"
	ErrCodeInvalidRequest ErrorCode = "invalid_request"
	ErrCodeConfig         ErrorCode = "config_error"
	ErrCodeDatabase       ErrorCode = "database_error"
	ErrCodeCache          ErrorCode = "cache_error"
)

// Wire conventions understood by the edge cache.
const (
	// HeaderCacheControl with CacheControlRefresh on a HEAD request tells the
	// edge cache to drop its stored copy and fetch a fresh one.
	HeaderCacheControl  = "Cache-Control"
	CacheControlRefresh = "refresh"

	// LanguageCookieName selects the localized variant of a cached page.
	LanguageCookieName = "dsLanguage"
)
