package telegram

import (
	"context"

	"github.com/pkg/errors"
)

// defaultFactory is the process-wide client constructor. A concrete provider
// implementation installs itself here from its init function; until then any
// attempt to build a client fails loudly.
var defaultFactory Factory = func(ctx context.Context, sessionString string, creds Credentials) (Client, error) {
	return nil, errors.New("[telegram.DefaultFactory] no client provider registered")
}

// RegisterFactory installs the concrete client provider.
func RegisterFactory(factory Factory) {
	if factory == nil {
		panic("telegram: RegisterFactory called with nil factory")
	}
	defaultFactory = factory
}

// DefaultFactory returns the registered client provider.
func DefaultFactory() Factory {
	return func(ctx context.Context, sessionString string, creds Credentials) (Client, error) {
		return defaultFactory(ctx, sessionString, creds)
	}
}
