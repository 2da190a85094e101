package profile

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jrsteele09/rafiq-client/internal/utils"
	"github.com/jrsteele09/rafiq-client/sessions"
)

// Fetcher reads the profile for a bearer token.
type Fetcher interface {
	Fetch(ctx context.Context, token string) (*Profile, error)
}

// Enricher fills the session's profile image from the profile endpoint.
//
// Every session change observed while authenticated issues one fetch, with
// no de-duplication. A newer change cancels the fetch in flight, and a result
// whose token is no longer the session's token is dropped. Failures are only
// logged at debug level; the session simply stays without an image.
type Enricher struct {
	store   *sessions.Store
	fetcher Fetcher
	logger  zerolog.Logger

	mu         sync.Mutex
	ctx        context.Context
	sub        *sessions.Subscription
	cancel     context.CancelFunc
	generation uint64
	stopped    bool
	inflight   sync.WaitGroup
}

type EnricherOption func(*Enricher)

func WithEnricherLogger(logger zerolog.Logger) EnricherOption {
	return func(e *Enricher) {
		e.logger = logger
	}
}

func NewEnricher(store *sessions.Store, fetcher Fetcher, opts ...EnricherOption) *Enricher {
	e := &Enricher{
		store:   store,
		fetcher: fetcher,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start subscribes to the store and triggers at once if the session is
// already authenticated. ctx bounds every fetch. Calling Start twice is a
// no-op, as is Start after Stop.
func (e *Enricher) Start(ctx context.Context) {
	e.mu.Lock()
	if e.sub != nil || e.stopped {
		e.mu.Unlock()
		return
	}
	e.ctx = ctx
	e.sub = e.store.Subscribe(e.onChange)
	e.mu.Unlock()

	e.onChange(e.store.Session())
}

// Stop unsubscribes, cancels any fetch in flight and waits for it to return.
func (e *Enricher) Stop() {
	e.mu.Lock()
	e.stopped = true
	if e.sub != nil {
		e.sub.Unsubscribe()
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.generation++
	e.mu.Unlock()

	e.inflight.Wait()
}

// Wait blocks until no fetch is in flight.
func (e *Enricher) Wait() {
	e.inflight.Wait()
}

func (e *Enricher) onChange(s sessions.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped || e.ctx == nil {
		return
	}
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.generation++
	if !s.IsAuthenticated {
		return
	}

	ctx, cancel := context.WithCancel(e.ctx)
	e.cancel = cancel
	gen := e.generation
	token := utils.Value(s.Token)

	e.inflight.Add(1)
	go e.fetch(ctx, gen, token, s.Subject())
}

func (e *Enricher) fetch(ctx context.Context, gen uint64, token, subject string) {
	defer e.inflight.Done()

	logger := e.logger.With().Str("subject", subject).Uint64("generation", gen).Logger()
	p, err := e.fetcher.Fetch(ctx, token)
	if err != nil {
		logger.Debug().Err(err).Msg("profile enrichment failed")
		return
	}

	e.mu.Lock()
	current := gen == e.generation && !e.stopped
	e.mu.Unlock()
	if !current || ctx.Err() != nil {
		logger.Debug().Msg("profile enrichment superseded")
		return
	}
	if p == nil || p.ProfilePicture == "" {
		return
	}
	if !e.store.SetProfileImageFor(token, p.ProfilePicture) {
		logger.Debug().Msg("profile enrichment token changed")
	}
}
