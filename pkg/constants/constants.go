// Package constants defines magic numbers and default values used throughout rawauth
package constants

import "time"

// Connection timeouts and limits
const (
	DefaultIdleTimeout    = 90 * time.Second
	DefaultConnTimeout    = 10 * time.Second
	DefaultReadTimeout    = 30 * time.Second
	DefaultPingInterval   = 15 * time.Second
	MaxConnectionIdleTime = 5 * time.Minute
	HealthCheckInterval   = 30 * time.Second
	CleanupInterval       = 30 * time.Second
)

// Response parser tolerances
const (
	// TrickleReadDelay is the pause between zero-byte reads while tolerating
	// a server that dribbles a text/html body a few bytes at a time.
	TrickleReadDelay = 50 * time.Millisecond
	// MaxTrickleIterations bounds how many TrickleReadDelay waits readUntilClose
	// will tolerate before giving up on a stalled connection.
	MaxTrickleIterations = 1000
)

// HTTP limits
const (
	MaxContentLength = 1024 * 1024 * 1024 * 1024 // 1TB
)

// Buffer limits
const (
	DefaultBodyMemLimit = 4 * 1024 * 1024 // 4MB
	MaxRawBufferSize    = 100 * 1024 * 1024 // 100MB cap for raw buffer
)
