// Package analyzer provides banner image analyzers. An analyzer turns an
// image on disk into a best-guess JSON object describing the event it
// advertises.
package analyzer

import (
	"context"
	"encoding/json"
)

// Analyzer extracts structured event data from a banner image. Implementations
// are immutable after construction and safe for concurrent use.
type Analyzer interface {
	// Analyze reads the image at path and returns the analyzer's JSON output.
	Analyze(ctx context.Context, path string) (json.RawMessage, error)

	// Backend names the implementation, for logs and metrics.
	Backend() string
}

// Backend names accepted by configuration.
const (
	BackendCommand = "command"
	BackendNATS    = "nats"
	BackendNone    = "none"
)
