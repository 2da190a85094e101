package bootstrap_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jrsteele09/rafiq-client/internal/backendfake"
	"github.com/jrsteele09/rafiq-client/internal/bootstrap"
	"github.com/jrsteele09/rafiq-client/internal/config"
	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/sessions"
)

func TestOpenSessionStorage(t *testing.T) {
	ctx := context.Background()

	roundTrip := func(t *testing.T, storage sessions.Storage) {
		t.Helper()
		require.NoError(t, storage.Set(ctx, sessions.TokenKey, "abc"))
		v, err := storage.Get(ctx, sessions.TokenKey)
		require.NoError(t, err)
		require.Equal(t, "abc", v)
	}

	t.Run("memory", func(t *testing.T) {
		t.Setenv("SESSION_STORE", "memory")
		storage, closer, err := bootstrap.OpenSessionStorage(ctx, config.New())
		require.NoError(t, err)
		defer closer.Close()
		roundTrip(t, storage)
	})

	t.Run("file", func(t *testing.T) {
		dir := t.TempDir()
		t.Setenv("SESSION_STORE", "FILE")
		t.Setenv("FOLDER", dir)
		storage, closer, err := bootstrap.OpenSessionStorage(ctx, config.New())
		require.NoError(t, err)
		defer closer.Close()
		roundTrip(t, storage)
		require.FileExists(t, filepath.Join(dir, "session.json"))
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		t.Setenv("SESSION_STORE", "redis")
		t.Setenv("REDIS_ADDR", mr.Addr())
		t.Setenv("REDIS_PREFIX", "test:")
		storage, closer, err := bootstrap.OpenSessionStorage(ctx, config.New())
		require.NoError(t, err)
		defer closer.Close()
		roundTrip(t, storage)

		v, err := mr.Get("test:" + sessions.TokenKey)
		require.NoError(t, err)
		require.Equal(t, "abc", v)
	})

	t.Run("sqlite", func(t *testing.T) {
		t.Setenv("SESSION_STORE", "sqlite")
		t.Setenv("SQLITE_DSN", "file:"+filepath.Join(t.TempDir(), "session.db"))
		storage, closer, err := bootstrap.OpenSessionStorage(ctx, config.New())
		require.NoError(t, err)
		defer closer.Close()
		roundTrip(t, storage)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Setenv("SESSION_STORE", "etcd")
		_, _, err := bootstrap.OpenSessionStorage(ctx, config.New())
		require.ErrorIs(t, err, apperrors.ErrUnsupportedStorage)
	})
}

func TestNew(t *testing.T) {
	backend, srv := backendfake.NewServer(t, "tok")
	backend.SetProfile(map[string]any{"profile_picture": "https://cdn.example/ana.png"})

	dir := t.TempDir()
	t.Setenv("SESSION_STORE", "file")
	t.Setenv("FOLDER", dir)
	t.Setenv("BASE_URL", srv.URL+"/")

	ctx := context.Background()
	app, err := bootstrap.New(ctx, config.New(), zerolog.Nop())
	require.NoError(t, err)
	require.False(t, app.Store.IsAuthenticated())

	app.Start(ctx)
	app.Store.SetToken("tok")
	require.Eventually(t, func() bool {
		img, ok := app.Store.ProfileImage()
		return ok && img == "https://cdn.example/ana.png"
	}, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, app.Close())

	t.Run("session survives a restart", func(t *testing.T) {
		reopened, err := bootstrap.New(ctx, config.New(), zerolog.Nop())
		require.NoError(t, err)
		defer reopened.Close()

		require.True(t, reopened.Store.IsAuthenticated())
		img, ok := reopened.Store.ProfileImage()
		require.True(t, ok)
		require.Equal(t, "https://cdn.example/ana.png", img)
	})
}
