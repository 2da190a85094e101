package profile_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/rafiq-client/internal/backendfake"
	"github.com/jrsteele09/rafiq-client/profile"
	"github.com/jrsteele09/rafiq-client/sessions"
	fakestorage "github.com/jrsteele09/rafiq-client/sessions/repofakes"
	"github.com/stretchr/testify/require"
)

func newSessionStore(t *testing.T, seed map[string]string) *sessions.Store {
	t.Helper()
	store, err := sessions.NewStore(context.Background(), fakestorage.NewFakeStorageWith(seed))
	require.NoError(t, err)
	return store
}

func TestEnricher_AgainstBackend(t *testing.T) {
	backend, srv := backendfake.NewServer(t, testToken)
	backend.SetProfile(map[string]any{"profile_picture": "https://cdn.rafiq.org/ana.png"})
	client := profile.NewClient(srv.URL, profile.WithHTTPClient(srv.Client()))

	t.Run("already authenticated at start", func(t *testing.T) {
		store := newSessionStore(t, map[string]string{sessions.TokenKey: testToken})
		e := profile.NewEnricher(store, client)
		e.Start(context.Background())
		e.Wait()
		defer e.Stop()

		img, ok := store.ProfileImage()
		require.True(t, ok)
		require.Equal(t, "https://cdn.rafiq.org/ana.png", img)
	})

	t.Run("no fetch without a token", func(t *testing.T) {
		before := backend.ProfileHits()
		store := newSessionStore(t, nil)
		e := profile.NewEnricher(store, client)
		e.Start(context.Background())
		e.Wait()
		defer e.Stop()

		require.Equal(t, before, backend.ProfileHits())
		store.SetToken("undefined")
		e.Wait()
		require.Equal(t, before, backend.ProfileHits())
	})

	t.Run("failure is silent", func(t *testing.T) {
		store := newSessionStore(t, map[string]string{sessions.TokenKey: "rejected"})
		e := profile.NewEnricher(store, client)
		e.Start(context.Background())
		e.Wait()
		defer e.Stop()

		_, ok := store.ProfileImage()
		require.False(t, ok)
		require.True(t, store.IsAuthenticated())
	})
}

type stubFetcher struct {
	mu      sync.Mutex
	calls   atomic.Int32
	byToken map[string]*profile.Profile
	err     error
	block   map[string]chan struct{}
}

func (f *stubFetcher) Fetch(ctx context.Context, token string) (*profile.Profile, error) {
	f.calls.Add(1)
	f.mu.Lock()
	block := f.block[token]
	p := f.byToken[token]
	err := f.err
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func TestEnricher_Triggers(t *testing.T) {
	t.Run("sign in triggers a fetch and the image change refetches once", func(t *testing.T) {
		fetcher := &stubFetcher{byToken: map[string]*profile.Profile{
			"tok": {ProfilePicture: "img-1"},
		}}
		store := newSessionStore(t, nil)
		e := profile.NewEnricher(store, fetcher)
		e.Start(context.Background())
		defer e.Stop()
		require.Zero(t, fetcher.calls.Load())

		store.SetToken("tok")
		e.Wait()

		img, _ := store.ProfileImage()
		require.Equal(t, "img-1", img)
		require.EqualValues(t, 2, fetcher.calls.Load())
	})

	t.Run("no picture leaves the cached image", func(t *testing.T) {
		fetcher := &stubFetcher{byToken: map[string]*profile.Profile{"tok": {FirstName: "Ana"}}}
		store := newSessionStore(t, map[string]string{sessions.ProfileImageKey: "cached"})
		e := profile.NewEnricher(store, fetcher)
		e.Start(context.Background())
		defer e.Stop()

		store.SetToken("tok")
		e.Wait()
		img, _ := store.ProfileImage()
		require.Equal(t, "cached", img)
	})

	t.Run("fetch error is swallowed", func(t *testing.T) {
		fetcher := &stubFetcher{err: errors.New("network down")}
		store := newSessionStore(t, nil)
		e := profile.NewEnricher(store, fetcher)
		e.Start(context.Background())
		defer e.Stop()

		store.SetToken("tok")
		e.Wait()
		_, ok := store.ProfileImage()
		require.False(t, ok)
		require.EqualValues(t, 1, fetcher.calls.Load())
	})

	t.Run("superseded fetch cannot overwrite a newer session", func(t *testing.T) {
		release := make(chan struct{})
		fetcher := &stubFetcher{
			byToken: map[string]*profile.Profile{
				"old": {ProfilePicture: "old-img"},
				"new": {ProfilePicture: "new-img"},
			},
			block: map[string]chan struct{}{"old": release},
		}
		store := newSessionStore(t, nil)
		e := profile.NewEnricher(store, fetcher)
		e.Start(context.Background())
		defer e.Stop()

		store.SetToken("old")
		store.SetToken("new")
		close(release)
		e.Wait()

		img, _ := store.ProfileImage()
		require.Equal(t, "new-img", img)
	})

	t.Run("logout cancels the fetch in flight", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		fetcher := &stubFetcher{
			byToken: map[string]*profile.Profile{"tok": {ProfilePicture: "img"}},
			block:   map[string]chan struct{}{"tok": release},
		}
		store := newSessionStore(t, nil)
		e := profile.NewEnricher(store, fetcher)
		e.Start(context.Background())
		defer e.Stop()

		store.SetToken("tok")
		store.ClearSession()
		e.Wait()

		_, ok := store.ProfileImage()
		require.False(t, ok)
	})

	t.Run("stop unsubscribes", func(t *testing.T) {
		fetcher := &stubFetcher{}
		store := newSessionStore(t, nil)
		e := profile.NewEnricher(store, fetcher)
		e.Start(context.Background())
		e.Stop()

		store.SetToken("tok")
		e.Wait()
		require.Zero(t, fetcher.calls.Load())

		e.Start(context.Background())
		store.SetToken("tok-2")
		require.Zero(t, fetcher.calls.Load(), "start after stop is a no-op")
	})
}
