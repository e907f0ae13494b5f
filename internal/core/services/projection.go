package services

import (
	"github.com/kamal-hamza/stg-cli/internal/core/domain"
	"github.com/kamal-hamza/stg-cli/internal/core/ports"
)

// Projection is the read-only view of a registry used by displays.
// Every call reads the current state; two calls may disagree while
// negotiations are completing.
type Projection struct {
	source ports.SnapshotSource
}

// NewProjection creates a projection over source
func NewProjection(source ports.SnapshotSource) *Projection {
	return &Projection{source: source}
}

// Rows returns one view per staged file in admission order
func (p *Projection) Rows() []domain.FileView {
	files := p.source.Snapshot()
	rows := make([]domain.FileView, len(files))
	for i, f := range files {
		rows[i] = f.View()
	}
	return rows
}

// Summary counts the current rows per status
func (p *Projection) Summary() domain.Summary {
	return domain.Summarize(p.Rows())
}

// Identifiers returns the identifiers of negotiated files keyed by name
func (p *Projection) Identifiers() map[string]string {
	ids := make(map[string]string)
	for _, row := range p.Rows() {
		if row.Status == domain.StatusNegotiated {
			ids[row.Name] = row.Identifier
		}
	}
	return ids
}
