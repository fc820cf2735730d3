package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 30 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// List endpoint pagination bounds. Requests above PageSizeMax fall back
// to the default rather than being clamped, so callers notice.
const (
	PageSizeDefault = 50
	PageSizeMax     = 100
)

// Background job intervals
const CleanupJobInterval = 5 * time.Minute

// Revoked refresh sessions are kept around this long before the cleanup
// job deletes them, so rotation-reuse attempts keep hitting a revoked row
// instead of a missing one.
const RevokedSessionRetention = 30 * 24 * time.Hour
