package domain

import (
	"errors"
	"fmt"
	"time"
)

// NegotiatedProgress is the progress shown once a file has a server id.
// No bytes have moved at that point, so it stays well short of 100.
const NegotiatedProgress = 25

// NegotiationFailedMessage is the error text attached to every failed file
const NegotiationFailedMessage = "fail to prepare"

// ErrInvalidTransition is returned when a status change breaks the
// Waiting -> Negotiating -> Negotiated|Failed order
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the lifecycle state of a staged file
type Status int

const (
	StatusWaiting Status = iota
	StatusNegotiating
	StatusNegotiated
	StatusFailed
)

// AllStatuses lists every status in lifecycle order
var AllStatuses = []Status{StatusWaiting, StatusNegotiating, StatusNegotiated, StatusFailed}

func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusNegotiating:
		return "negotiating"
	case StatusNegotiated:
		return "negotiated"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText encodes the status by name
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status written by MarshalText
func (s *Status) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus is the inverse of Status.String
func ParseStatus(name string) (Status, error) {
	for _, s := range AllStatuses {
		if s.String() == name {
			return s, nil
		}
	}
	return StatusWaiting, fmt.Errorf("unknown status %q", name)
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusNegotiated || s == StatusFailed
}

// CanTransitionTo reports whether next directly follows s
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusWaiting:
		return next == StatusNegotiating
	case StatusNegotiating:
		return next == StatusNegotiated || next == StatusFailed
	default:
		return false
	}
}

// FileHandle is a user-selected file as handed over by a selection surface.
// The core only reads Name and ContentType; Path is the byte source.
type FileHandle struct {
	Name        string
	ContentType string
	Size        int64
	Path        string
}

// StagedFile is one file tracked through negotiation
type StagedFile struct {
	ID         string
	File       FileHandle
	Status     Status
	Progress   int
	Identifier string // Set only when Status is StatusNegotiated
	Error      string // Set only when Status is StatusFailed
	AdmittedAt time.Time
	UpdatedAt  time.Time
}

// NewStagedFile creates a waiting entity for the given handle
func NewStagedFile(id string, file FileHandle, now time.Time) StagedFile {
	return StagedFile{
		ID:         id,
		File:       file,
		Status:     StatusWaiting,
		Progress:   0,
		AdmittedAt: now,
		UpdatedAt:  now,
	}
}

// Name returns the dedup key of the file
func (f StagedFile) Name() string {
	return f.File.Name
}

// Apply returns f moved to the status carried by u.
// The identifier and error fields follow the status: a negotiated file
// always has an identifier, a failed one always has an error, never both.
func (f StagedFile) Apply(u Update, now time.Time) (StagedFile, error) {
	if !f.Status.CanTransitionTo(u.Status) {
		return f, fmt.Errorf("%w: %s -> %s (%s)", ErrInvalidTransition, f.Status, u.Status, f.Name())
	}

	next := f
	next.Status = u.Status
	next.UpdatedAt = now

	switch u.Status {
	case StatusNegotiated:
		if u.Identifier == "" {
			return f, fmt.Errorf("%w: negotiated without identifier (%s)", ErrInvalidTransition, f.Name())
		}
		next.Identifier = u.Identifier
		next.Progress = NegotiatedProgress
		next.Error = ""
	case StatusFailed:
		next.Error = u.Error
		if next.Error == "" {
			next.Error = NegotiationFailedMessage
		}
		next.Identifier = ""
	}

	return next, nil
}

// View projects the entity for display
func (f StagedFile) View() FileView {
	return FileView{
		ID:         f.ID,
		Name:       f.File.Name,
		Status:     f.Status,
		Progress:   f.Progress,
		Identifier: f.Identifier,
		Error:      f.Error,
	}
}

// Update is a single transition emitted by a negotiator for one file
type Update struct {
	FileID     string
	Status     Status
	Identifier string
	Error      string
}
