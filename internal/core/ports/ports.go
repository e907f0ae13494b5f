package ports

import (
	"context"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
)

// NegotiationClient defines the port for exchanging a file's name and
// content type for a server-assigned identifier
type NegotiationClient interface {
	// Negotiate returns the identifier assigned by the remote service.
	// Any error means the negotiation failed.
	Negotiate(ctx context.Context, name, contentType string) (string, error)
}

// HealthChecker defines the port for probing the negotiation service
type HealthChecker interface {
	// Ping returns nil when the service answered successfully
	Ping(ctx context.Context) error
}

// SnapshotSource defines the read side of the file registry
type SnapshotSource interface {
	// Snapshot returns copies of every staged file in admission order
	Snapshot() []domain.StagedFile
}

// Admitter defines the write side used by selection surfaces
type Admitter interface {
	// Admit stages the candidates and returns the ones that were new
	Admit(ctx context.Context, candidates []domain.FileHandle) []domain.StagedFile
}

// FileSource turns user-selected paths into file handles
type FileSource interface {
	// Open inspects path and returns its handle
	Open(ctx context.Context, path string) (domain.FileHandle, error)
}

// FilePicker lets the user choose files interactively
type FilePicker interface {
	// Pick returns the chosen paths; an empty result means nothing was chosen
	Pick(ctx context.Context, dir string) ([]string, error)
}

// ReportWriter renders a finished session for later inspection
type ReportWriter interface {
	// Write renders the views to path
	Write(ctx context.Context, path string, views []domain.FileView) error
}
