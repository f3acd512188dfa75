package cli

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/viper"
	"github.com/telegate/telegate/sessionstore"
)

type app struct {
	client *apiClient
	store  *sessionstore.Store
}

func wireApp() (*app, error) {
	store, err := sessionstore.New(viper.New())
	if err != nil {
		return nil, fmt.Errorf("wire session store: %w", err)
	}

	return &app{
		client: newAPIClient(
			envOrDefault("TELEGATE_SERVER", "http://localhost:8080"),
			http.DefaultClient,
			store,
		),
		store: store,
	}, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
