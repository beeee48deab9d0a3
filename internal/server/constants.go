// Package server provides the HTTP and WebSocket mirror of the chatbox
package server

import "time"

// Server configuration constants
const (
	// Per-client write deadline for mirrored events
	WriteTimeout = 5 * time.Second

	// Events queued per client before new ones are dropped
	ClientBuffer = 64

	// Upper bound for /api/history?seconds=
	MaxHistorySeconds = 24 * 60 * 60

	// HTTP server timeouts
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 5 * time.Second
)
