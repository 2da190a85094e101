// Package filestore persists session keys to a JSON file in the data folder.
package filestore

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/jrsteele09/rafiq-client/internal/errors"
	"github.com/jrsteele09/rafiq-client/sessions"
)

// FileName is the file created inside the data folder.
const FileName = "session.json"

var _ sessions.Storage = (*FileStore)(nil)

type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

func New(dataFolder string) (*FileStore, error) {
	if err := os.MkdirAll(dataFolder, 0o700); err != nil {
		return nil, apperrors.Wrapf(err, "[filestore New] create %s", dataFolder)
	}
	fs := &FileStore{
		path:   filepath.Join(dataFolder, FileName),
		values: map[string]string{},
	}
	if err := fs.load(); err != nil {
		return nil, apperrors.Wrapf(err, "[filestore New] load %s", fs.path)
	}
	return fs, nil
}

func (fs *FileStore) load() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	b, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var loaded map[string]string
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}
	if loaded != nil {
		fs.values = loaded
	}
	return nil
}

// saveLocked writes to a sibling temp file and renames it so a crash never
// leaves a truncated session file.
func (fs *FileStore) saveLocked() error {
	b, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return err
	}
	tmp := fs.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, fs.path)
}

func (fs *FileStore) Get(_ context.Context, key string) (string, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()

	v, ok := fs.values[key]
	if !ok {
		return "", apperrors.ErrStorageKeyNotFound
	}
	return v, nil
}

func (fs *FileStore) Set(_ context.Context, key, value string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.values[key] = value
	return apperrors.Wrapf(fs.saveLocked(), "[filestore Set] %s", key)
}

func (fs *FileStore) Delete(_ context.Context, key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.values[key]; !ok {
		return nil
	}
	delete(fs.values, key)
	return apperrors.Wrapf(fs.saveLocked(), "[filestore Delete] %s", key)
}

// Path is the session file location.
func (fs *FileStore) Path() string {
	return fs.path
}
