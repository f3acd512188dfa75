package config

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/telegate/telegate/telegram"
)

const (
	apiIDEnvVar   = "TELEGRAM_API_ID"
	apiHashEnvVar = "TELEGRAM_API_HASH"
)

type Telegram struct{}

var _ TelegramConfig = Telegram{}

func (Telegram) GetTelegramAPIID() (int, error) {
	raw := os.Getenv(apiIDEnvVar)
	if raw == "" {
		return 0, errors.Errorf("%s is not set", apiIDEnvVar)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.Wrapf(err, "%s must be numeric", apiIDEnvVar)
	}
	return id, nil
}

func (Telegram) GetTelegramAPIHash() string {
	return os.Getenv(apiHashEnvVar)
}

// TelegramCredentials resolves and validates the fixed application
// credentials. Absence is a startup failure, never a per-request one.
func TelegramCredentials(cfg TelegramConfig) (telegram.Credentials, error) {
	id, err := cfg.GetTelegramAPIID()
	if err != nil {
		return telegram.Credentials{}, errors.Wrap(err, "[TelegramCredentials] api id")
	}
	hash := cfg.GetTelegramAPIHash()
	if hash == "" {
		return telegram.Credentials{}, errors.Errorf("[TelegramCredentials] %s is not set", apiHashEnvVar)
	}
	return telegram.Credentials{APIID: id, APIHash: hash}, nil
}
