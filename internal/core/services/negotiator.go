package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
	"github.com/kamal-hamza/stg-cli/internal/core/ports"
)

// errEmptyIdentifier marks a successful call that returned no identifier
var errEmptyIdentifier = errors.New("negotiation returned an empty identifier")

// Negotiator drives a single staged file through one negotiation call.
// It never touches the file itself: every transition is sent as an Update
// and applied by the registry that owns the file.
type Negotiator struct {
	client  ports.NegotiationClient
	timeout time.Duration
}

// NewNegotiator creates a negotiator. A zero timeout means the call may
// take as long as the remote service needs.
func NewNegotiator(client ports.NegotiationClient, timeout time.Duration) *Negotiator {
	return &Negotiator{
		client:  client,
		timeout: timeout,
	}
}

// Run emits Negotiating, performs the call once, then emits the terminal
// update. Sends give up when ctx is done.
func (n *Negotiator) Run(ctx context.Context, file domain.StagedFile, updates chan<- domain.Update) {
	if !send(ctx, updates, domain.Update{FileID: file.ID, Status: domain.StatusNegotiating}) {
		return
	}

	id, err := n.negotiate(ctx, file.File)
	if err != nil {
		log.Warn().
			Err(err).
			Str("file", file.Name()).
			Str("content_type", file.File.ContentType).
			Msg("negotiation failed")

		send(ctx, updates, domain.Update{
			FileID: file.ID,
			Status: domain.StatusFailed,
			Error:  domain.NegotiationFailedMessage,
		})
		return
	}

	log.Debug().Str("file", file.Name()).Str("identifier", id).Msg("negotiated")
	send(ctx, updates, domain.Update{
		FileID:     file.ID,
		Status:     domain.StatusNegotiated,
		Identifier: id,
	})
}

func (n *Negotiator) negotiate(ctx context.Context, file domain.FileHandle) (string, error) {
	callCtx := ctx
	if n.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	id, err := n.client.Negotiate(callCtx, file.Name, file.ContentType)
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errEmptyIdentifier
	}
	return id, nil
}

func send(ctx context.Context, updates chan<- domain.Update, u domain.Update) bool {
	select {
	case updates <- u:
		return true
	case <-ctx.Done():
		return false
	}
}
