package config

type Config interface {
	EnvConfig
	CorsConfig
	TelegramConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
	GetExposedHeaders() string
}

type TelegramConfig interface {
	GetTelegramAPIID() (int, error)
	GetTelegramAPIHash() string
}

type mainConfig struct {
	EnvVars
	Cors
	Telegram
}

func New() Config {
	return mainConfig{}
}
