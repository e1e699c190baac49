// Package timeouts defines shared timeout constants used across the service.
// Centralizing these values keeps boundary durations discoverable and
// prevents drift between callers.
package timeouts

import "time"

// ReadHeader limits how long the HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// Finalize caps the time allowed for the terminal finalize call against
// the role store.
const Finalize = 10 * time.Second

// DraftSave caps the background best-effort draft save. Draft saves are
// fire-and-forget, so the bound only protects against a wedged store.
const DraftSave = 3 * time.Second
