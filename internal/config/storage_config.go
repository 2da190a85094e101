package config

import "strings"

// StorageKind selects the durable backend behind the session store.
type StorageKind string

const (
	StorageMemory StorageKind = "memory"
	StorageFile   StorageKind = "file"
	StorageRedis  StorageKind = "redis"
	StorageSQLite StorageKind = "sqlite"
)

type StorageConfig interface {
	GetSessionStorage() StorageKind
	GetRedisAddr() string
	GetRedisPrefix() string
	GetSQLiteDSN() string
}

type Storage struct{}

var _ StorageConfig = Storage{}

func (Storage) GetSessionStorage() StorageKind {
	return StorageKind(strings.ToLower(GetEnv("SESSION_STORE", string(StorageFile))))
}

func (Storage) GetRedisAddr() string {
	return GetEnv("REDIS_ADDR", "localhost:6379")
}

func (Storage) GetRedisPrefix() string {
	return GetEnv("REDIS_PREFIX", "rafiq:session:")
}

func (Storage) GetSQLiteDSN() string {
	return GetEnv("SQLITE_DSN", "file:./data/session.db")
}
