// Package sessions holds the client's persisted authentication session: the
// credential token and the cached profile image URL.
//
// A Store is created once at process start from a durable Storage and is the
// single source of truth afterwards. Readers only ever touch memory; writes go
// through to Storage immediately and then notify subscribers.
package sessions

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/internal/utils"
)

type subscriber struct {
	id uuid.UUID
	fn func(Session)
}

// Store is safe for concurrent use. Concurrent writers are last-write-wins.
type Store struct {
	storage Storage
	logger  zerolog.Logger

	// writeLock serialises storage writes so that memory and storage agree on
	// the last writer. lock guards the in-memory state only.
	writeLock    sync.Mutex
	lock         sync.RWMutex
	token        *string
	profileImage *string
	subscribers  []subscriber
}

type Option func(*Store)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore loads the persisted session from storage.
func NewStore(ctx context.Context, storage Storage, opts ...Option) (*Store, error) {
	s := &Store{
		storage: storage,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	token, err := load(ctx, storage, TokenKey)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[sessions NewStore] load %s", TokenKey)
	}
	profileImage, err := load(ctx, storage, ProfileImageKey)
	if err != nil {
		return nil, apperrors.Wrapf(err, "[sessions NewStore] load %s", ProfileImageKey)
	}
	s.token = token
	s.profileImage = profileImage

	s.logger.Debug().
		Bool("authenticated", IsAuthenticated(token)).
		Bool("profile_image", profileImage != nil).
		Msg("session loaded")
	return s, nil
}

func load(ctx context.Context, storage Storage, key string) (*string, error) {
	v, err := storage.Get(ctx, key)
	if apperrors.Is(err, apperrors.ErrStorageKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Token returns the stored credential token, if any.
func (s *Store) Token() (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return utils.Value(s.token), s.token != nil
}

// IsAuthenticated derives authentication from the current token.
func (s *Store) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return IsAuthenticated(s.token)
}

// ProfileImage returns the cached profile image URL, if any.
func (s *Store) ProfileImage() (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return utils.Value(s.profileImage), s.profileImage != nil
}

// Session returns a snapshot of the current state.
func (s *Store) Session() Session {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Session {
	var token, image *string
	if s.token != nil {
		token = utils.Ptr(*s.token)
	}
	if s.profileImage != nil {
		image = utils.Ptr(*s.profileImage)
	}
	return newSession(token, image)
}

// SetToken stores a credential token, typically after sign-in.
func (s *Store) SetToken(token string) {
	s.write(TokenKey, &token, func(v *string) { s.token = v }, func() *string { return s.token }, nil)
}

// SetProfileImage caches the profile image URL.
func (s *Store) SetProfileImage(url string) {
	s.write(ProfileImageKey, &url, func(v *string) { s.profileImage = v }, func() *string { return s.profileImage }, nil)
}

// SetProfileImageFor caches the profile image URL only while token is still
// the session's token. It reports whether the session still belonged to token.
func (s *Store) SetProfileImageFor(token, url string) bool {
	return s.write(ProfileImageKey, &url, func(v *string) { s.profileImage = v }, func() *string { return s.profileImage },
		func() bool { return s.token != nil && *s.token == token })
}

// ClearSession logs out by removing the token. The cached profile image is
// left in place.
func (s *Store) ClearSession() {
	s.write(TokenKey, nil, func(v *string) { s.token = v }, func() *string { return s.token }, nil)
}

// ClearProfileImage removes the cached profile image.
func (s *Store) ClearProfileImage() {
	s.write(ProfileImageKey, nil, func(v *string) { s.profileImage = v }, func() *string { return s.profileImage }, nil)
}

// write applies value (nil deletes) to memory, persists it and notifies
// subscribers. Writing the value already held is not a change. A non-nil cond
// is checked under the lock and a false result skips the write; write returns
// that result.
func (s *Store) write(key string, value *string, set func(*string), get func() *string, cond func() bool) bool {
	s.writeLock.Lock()

	s.lock.Lock()
	if cond != nil && !cond() {
		s.lock.Unlock()
		s.writeLock.Unlock()
		return false
	}
	if utils.EqualPtr(get(), value) {
		s.lock.Unlock()
		s.writeLock.Unlock()
		return true
	}
	set(value)
	snapshot := s.snapshotLocked()
	subscribers := append([]subscriber(nil), s.subscribers...)
	s.lock.Unlock()

	s.persist(key, value)
	s.writeLock.Unlock()

	for _, sub := range subscribers {
		sub.fn(snapshot)
	}
	return true
}

func (s *Store) persist(key string, value *string) {
	ctx := context.Background()
	var err error
	if value == nil {
		err = s.storage.Delete(ctx, key)
	} else {
		err = s.storage.Set(ctx, key, *value)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to persist session key")
	}
}

// Subscription is a registered change listener.
type Subscription struct {
	ID    uuid.UUID
	store *Store
	once  sync.Once
}

// Subscribe registers fn to be called with a snapshot after every change.
// fn runs on the writer's goroutine and must not block.
func (s *Store) Subscribe(fn func(Session)) *Subscription {
	sub := &Subscription{ID: uuid.New(), store: s}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.subscribers = append(s.subscribers, subscriber{id: sub.ID, fn: fn})
	return sub
}

// Unsubscribe removes the listener. It is safe to call more than once.
func (sub *Subscription) Unsubscribe() {
	sub.once.Do(func() {
		s := sub.store
		s.lock.Lock()
		defer s.lock.Unlock()
		for i, existing := range s.subscribers {
			if existing.id == sub.ID {
				s.subscribers = append(s.subscribers[:i:i], s.subscribers[i+1:]...)
				return
			}
		}
	})
}
