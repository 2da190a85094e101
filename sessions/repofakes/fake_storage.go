package fakestorage

import (
	"context"
	"sync"

	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/sessions"
)

var _ sessions.Storage = (*FakeStorage)(nil)

type FakeStorage struct {
	values  map[string]string
	writes  int
	failErr error
	lock    sync.RWMutex
}

func NewFakeStorage() *FakeStorage {
	return &FakeStorage{
		values: make(map[string]string),
	}
}

// NewFakeStorageWith seeds the storage, as if written by a previous process.
func NewFakeStorageWith(values map[string]string) *FakeStorage {
	fs := NewFakeStorage()
	for k, v := range values {
		fs.values[k] = v
	}
	return fs
}

func (fs *FakeStorage) Get(_ context.Context, key string) (string, error) {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	v, ok := fs.values[key]
	if !ok {
		return "", apperrors.ErrStorageKeyNotFound
	}
	return v, nil
}

func (fs *FakeStorage) Set(_ context.Context, key, value string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.failErr != nil {
		return fs.failErr
	}
	fs.writes++
	fs.values[key] = value
	return nil
}

func (fs *FakeStorage) Delete(_ context.Context, key string) error {
	fs.lock.Lock()
	defer fs.lock.Unlock()

	if fs.failErr != nil {
		return fs.failErr
	}
	fs.writes++
	delete(fs.values, key)
	return nil
}

// FailWrites makes every subsequent Set and Delete return err. nil restores
// normal behaviour.
func (fs *FakeStorage) FailWrites(err error) {
	fs.lock.Lock()
	defer fs.lock.Unlock()
	fs.failErr = err
}

// Writes counts successful Set and Delete calls.
func (fs *FakeStorage) Writes() int {
	fs.lock.RLock()
	defer fs.lock.RUnlock()
	return fs.writes
}

// Snapshot copies the stored values.
func (fs *FakeStorage) Snapshot() map[string]string {
	fs.lock.RLock()
	defer fs.lock.RUnlock()

	out := make(map[string]string, len(fs.values))
	for k, v := range fs.values {
		out[k] = v
	}
	return out
}
