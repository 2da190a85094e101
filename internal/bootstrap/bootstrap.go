// Package bootstrap assembles the client core from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jrsteele09/rafiq-client/internal/config"
	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/profile"
	"github.com/jrsteele09/rafiq-client/registration"
	"github.com/jrsteele09/rafiq-client/sessions"
	"github.com/jrsteele09/rafiq-client/sessions/filestore"
	"github.com/jrsteele09/rafiq-client/sessions/redisstore"
	fakestorage "github.com/jrsteele09/rafiq-client/sessions/repofakes"
	"github.com/jrsteele09/rafiq-client/sessions/sqlitestore"
)

// OpenSessionStorage opens the durable backend named by the configuration.
// The returned closer releases it and is never nil.
func OpenSessionStorage(ctx context.Context, cfg config.Config) (sessions.Storage, io.Closer, error) {
	switch kind := cfg.GetSessionStorage(); kind {
	case config.StorageMemory:
		return fakestorage.NewFakeStorage(), nopCloser{}, nil

	case config.StorageFile:
		fs, err := filestore.New(cfg.GetDataFolder())
		if err != nil {
			return nil, nil, apperrors.Wrapf(err, "[bootstrap OpenSessionStorage] file")
		}
		return fs, nopCloser{}, nil

	case config.StorageRedis:
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{cfg.GetRedisAddr()}})
		rs := redisstore.New(client, cfg.GetRedisPrefix())
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, apperrors.Wrapf(err, "[bootstrap OpenSessionStorage] redis %s", cfg.GetRedisAddr())
		}
		return rs, rs, nil

	case config.StorageSQLite:
		ss, err := sqlitestore.Open(ctx, cfg.GetSQLiteDSN())
		if err != nil {
			return nil, nil, apperrors.Wrapf(err, "[bootstrap OpenSessionStorage] sqlite")
		}
		return ss, ss, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedStorage, kind)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// App is the wired client core.
type App struct {
	Store        *sessions.Store
	Enricher     *profile.Enricher
	Profiles     *profile.Client
	Updater      *profile.Updater
	Registration *registration.Pipeline

	closer io.Closer
}

type Option func(*options)

type options struct {
	profileOpts      []profile.ClientOption
	registrationOpts []registration.ClientOption
}

// WithProfileClientOptions configures the profile endpoint client.
func WithProfileClientOptions(opts ...profile.ClientOption) Option {
	return func(o *options) {
		o.profileOpts = append(o.profileOpts, opts...)
	}
}

// WithRegistrationClientOptions configures the sign-up endpoint client.
func WithRegistrationClientOptions(opts ...registration.ClientOption) Option {
	return func(o *options) {
		o.registrationOpts = append(o.registrationOpts, opts...)
	}
}

// New loads the session and wires the enricher and submission pipelines.
// The enricher is not started; call Start. ctx bounds storage setup only.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	storage, closer, err := OpenSessionStorage(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := sessions.NewStore(ctx, storage, sessions.WithLogger(logger.With().Str("component", "sessions").Logger()))
	if err != nil {
		_ = closer.Close()
		return nil, apperrors.Wrapf(err, "[bootstrap New]")
	}

	profiles := profile.NewClient(cfg.GetBaseURL(), o.profileOpts...)
	app := &App{
		Store:    store,
		Profiles: profiles,
		Enricher: profile.NewEnricher(store, profiles,
			profile.WithEnricherLogger(logger.With().Str("component", "enricher").Logger())),
		Updater: profile.NewUpdater(profiles, store, logger.With().Str("component", "profile").Logger()),
		Registration: registration.NewPipeline(
			registration.NewClient(cfg.GetBaseURL(), o.registrationOpts...),
			logger.With().Str("component", "registration").Logger()),
		closer: closer,
	}

	logger.Info().
		Str("base_url", cfg.GetBaseURL()).
		Str("storage", string(cfg.GetSessionStorage())).
		Bool("authenticated", store.IsAuthenticated()).
		Msg("client core ready")
	return app, nil
}

// Start begins profile enrichment for the lifetime of ctx.
func (a *App) Start(ctx context.Context) {
	a.Enricher.Start(ctx)
}

// Close stops enrichment and releases the session storage.
func (a *App) Close() error {
	a.Enricher.Stop()
	return a.closer.Close()
}
