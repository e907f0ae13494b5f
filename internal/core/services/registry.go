package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/kamal-hamza/stg-cli/internal/core/domain"
	"github.com/kamal-hamza/stg-cli/internal/core/ports"
)

// Registry holds the staged files of one session in admission order.
// It is the only writer of StagedFile state: negotiators report through
// the updates channel and the apply loop folds each update in.
type Registry struct {
	negotiator *Negotiator
	now        func() time.Time
	newID      func() string

	mu          sync.RWMutex
	files       []domain.StagedFile
	byName      map[string]int
	byID        map[string]int
	pending     int
	waiters     []chan struct{}
	subscribers map[int]chan struct{}
	nextSub     int
	closed      bool

	updates  chan domain.Update
	ctx      context.Context
	cancel   context.CancelFunc
	loopDone chan struct{}
}

// RegistryOption configures a Registry
type RegistryOption func(*registryOptions)

type registryOptions struct {
	timeout time.Duration
	now     func() time.Time
	newID   func() string
}

// WithNegotiationTimeout bounds every negotiation call
func WithNegotiationTimeout(d time.Duration) RegistryOption {
	return func(o *registryOptions) {
		o.timeout = d
	}
}

// WithClock replaces time.Now (for tests)
func WithClock(now func() time.Time) RegistryOption {
	return func(o *registryOptions) {
		o.now = now
	}
}

// WithIDGenerator replaces the uuid generator for entity ids (for tests)
func WithIDGenerator(newID func() string) RegistryOption {
	return func(o *registryOptions) {
		o.newID = newID
	}
}

// NewRegistry creates an empty registry and starts its apply loop.
// Close must be called to stop it.
func NewRegistry(client ports.NegotiationClient, opts ...RegistryOption) *Registry {
	o := registryOptions{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithCancel(context.Background())
	r := &Registry{
		negotiator:  NewNegotiator(client, o.timeout),
		now:         o.now,
		newID:       o.newID,
		byName:      make(map[string]int),
		byID:        make(map[string]int),
		subscribers: make(map[int]chan struct{}),
		updates:     make(chan domain.Update),
		ctx:         ctx,
		cancel:      cancel,
		loopDone:    make(chan struct{}),
	}

	go r.loop()

	return r
}

// Admit stages every candidate whose name is not already present and
// starts one negotiation per new file without waiting for it.
// Duplicates, including repeats within the same batch, are dropped.
func (r *Registry) Admit(ctx context.Context, candidates []domain.FileHandle) []domain.StagedFile {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}

	admitted := make([]domain.StagedFile, 0, len(candidates))
	for _, c := range candidates {
		if _, exists := r.byName[c.Name]; exists {
			log.Debug().Str("file", c.Name).Msg("duplicate selection ignored")
			continue
		}

		f := domain.NewStagedFile(r.newID(), c, r.now())
		r.byName[c.Name] = len(r.files)
		r.byID[f.ID] = len(r.files)
		r.files = append(r.files, f)
		r.pending++
		admitted = append(admitted, f)
	}
	r.mu.Unlock()

	if len(admitted) == 0 {
		return admitted
	}

	r.notify()

	for _, f := range admitted {
		go r.runTask(ctx, f)
	}

	log.Info().Int("admitted", len(admitted)).Int("offered", len(candidates)).Msg("files staged")

	return admitted
}

// runTask keeps the values of the admitting context but ties
// cancellation to the registry lifetime instead of the caller.
func (r *Registry) runTask(ctx context.Context, f domain.StagedFile) {
	if ctx == nil {
		ctx = context.Background()
	}
	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()
	stop := context.AfterFunc(r.ctx, cancel)
	defer stop()

	r.negotiator.Run(taskCtx, f, r.updates)
}

// Snapshot returns copies of every staged file in admission order
func (r *Registry) Snapshot() []domain.StagedFile {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.StagedFile, len(r.files))
	copy(out, r.files)
	return out
}

// Get returns the staged file with the given id
func (r *Registry) Get(id string) (domain.StagedFile, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	idx, ok := r.byID[id]
	if !ok {
		return domain.StagedFile{}, false
	}
	return r.files[idx], true
}

// Len returns the number of staged files
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.files)
}

// Subscribe returns a channel that receives a signal after every change.
// Signals coalesce: a slow reader sees one signal for many changes and
// should read a fresh Snapshot. The returned func unsubscribes.
func (r *Registry) Subscribe() (<-chan struct{}, func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := make(chan struct{}, 1)
	id := r.nextSub
	r.nextSub++
	r.subscribers[id] = ch

	return ch, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.subscribers, id)
	}
}

// Wait blocks until every staged file is terminal, the registry is
// closed, or ctx is done
func (r *Registry) Wait(ctx context.Context) error {
	r.mu.Lock()
	if r.pending == 0 || r.closed {
		r.mu.Unlock()
		return nil
	}
	ch := make(chan struct{})
	r.waiters = append(r.waiters, ch)
	r.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset drops every staged file. Results still in flight for dropped
// files are discarded when they arrive.
func (r *Registry) Reset() {
	r.mu.Lock()
	dropped := len(r.files)
	r.files = nil
	r.byName = make(map[string]int)
	r.byID = make(map[string]int)
	r.pending = 0
	r.releaseWaitersLocked()
	r.mu.Unlock()

	log.Info().Int("dropped", dropped).Msg("registry reset")
	r.notify()
}

// Close stops the apply loop and aborts negotiations still in flight.
// Admit is a no-op afterwards.
func (r *Registry) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	r.cancel()
	<-r.loopDone

	r.mu.Lock()
	r.releaseWaitersLocked()
	r.mu.Unlock()
}

func (r *Registry) loop() {
	defer close(r.loopDone)

	for {
		select {
		case u := <-r.updates:
			r.apply(u)
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Registry) apply(u domain.Update) {
	r.mu.Lock()
	idx, ok := r.byID[u.FileID]
	if !ok {
		r.mu.Unlock()
		log.Debug().Str("file_id", u.FileID).Msg("update for unknown file discarded")
		return
	}

	next, err := r.files[idx].Apply(u, r.now())
	if err != nil {
		r.mu.Unlock()
		log.Error().Err(err).Str("file_id", u.FileID).Msg("update rejected")
		return
	}

	r.files[idx] = next
	if next.Status.IsTerminal() {
		r.pending--
		if r.pending == 0 {
			r.releaseWaitersLocked()
		}
	}
	r.mu.Unlock()

	r.notify()
}

func (r *Registry) releaseWaitersLocked() {
	for _, ch := range r.waiters {
		close(ch)
	}
	r.waiters = nil
}

func (r *Registry) notify() {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ch := range r.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
