package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
	"github.com/kamal-hamza/stg-cli/internal/core/ports/mocks"
)

func collect(t *testing.T, updates <-chan domain.Update, n int) []domain.Update {
	t.Helper()
	out := make([]domain.Update, 0, n)
	for i := 0; i < n; i++ {
		select {
		case u := <-updates:
			out = append(out, u)
		case <-time.After(waitTimeout):
			t.Fatalf("expected %d updates, got %d", n, len(out))
		}
	}
	return out
}

func TestNegotiator_EmitsNegotiatingThenNegotiated(t *testing.T) {
	client := mocks.NewMockNegotiationClient().Succeed("report.pdf", "srv-123")
	n := NewNegotiator(client, 0)
	file := domain.NewStagedFile("f1", domain.FileHandle{Name: "report.pdf", ContentType: "application/pdf"}, time.Now())

	updates := make(chan domain.Update)
	go n.Run(context.Background(), file, updates)

	got := collect(t, updates, 2)
	assert.Equal(t, domain.Update{FileID: "f1", Status: domain.StatusNegotiating}, got[0])
	assert.Equal(t, domain.Update{FileID: "f1", Status: domain.StatusNegotiated, Identifier: "srv-123"}, got[1])
	assert.Equal(t, 1, client.CallCount("report.pdf"))
}

func TestNegotiator_FailureCollapsesCause(t *testing.T) {
	client := mocks.NewMockNegotiationClient().Fail("bad.bin", errors.New("connection refused"))
	n := NewNegotiator(client, 0)
	file := domain.NewStagedFile("f2", domain.FileHandle{Name: "bad.bin"}, time.Now())

	updates := make(chan domain.Update)
	go n.Run(context.Background(), file, updates)

	got := collect(t, updates, 2)
	assert.Equal(t, domain.StatusFailed, got[1].Status)
	assert.Equal(t, domain.NegotiationFailedMessage, got[1].Error)
	assert.Empty(t, got[1].Identifier)
}

func TestNegotiator_StopsWhenContextDone(t *testing.T) {
	client := mocks.NewMockNegotiationClient()
	n := NewNegotiator(client, 0)
	file := domain.NewStagedFile("f3", domain.FileHandle{Name: "gone.txt"}, time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		n.Run(ctx, file, make(chan domain.Update))
	}()

	select {
	case <-done:
	case <-time.After(waitTimeout):
		t.Fatal("negotiator did not stop")
	}
	require.Equal(t, 0, client.CallCount("gone.txt"))
}
