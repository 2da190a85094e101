package sessions

import "context"

// Keys persisted by the session store.
const (
	TokenKey        = "token"
	ProfileImageKey = "profileImage"
)

// Storage is the durable key-value store behind a Store. It must survive
// process restarts. Get returns errors.ErrStorageKeyNotFound for absent keys.
type Storage interface {
	// Get retrieves the value stored under key
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error
	Delete(ctx context.Context, key string) error
}
