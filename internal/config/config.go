package config

type Config interface {
	EnvConfig
	StorageConfig
}

type EnvConfig interface {
	GetAppName() string
	GetBaseURL() string
	GetDataFolder() string
	GetLogLevel() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	Storage
}

func New() Config {
	return mainConfig{}
}
