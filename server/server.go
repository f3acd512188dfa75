package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	"github.com/telegate/telegate/auth"
	"github.com/telegate/telegate/internal/config"
	"github.com/telegate/telegate/pool"
	"github.com/telegate/telegate/telegram"
)

// Server wires the auth orchestrator and client pool behind the HTTP
// surface. The pool is constructed here, once, and owned for the process
// lifetime; nothing about sessions is persisted server-side.
type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	config config.Config
	auth   *auth.Service
	pool   *pool.Pool
}

func New(cfg config.Config, factory telegram.Factory) (*Server, error) {
	creds, err := config.TelegramCredentials(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] telegram credentials")
	}

	clientPool := pool.New(factory, creds)
	authService, err := auth.NewService(clientPool, creds)
	if err != nil {
		return nil, errors.Wrap(err, "[Server New] failed to create auth service")
	}

	s := &Server{
		mux:    http.NewServeMux(),
		config: cfg,
		auth:   authService,
		pool:   clientPool,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + ResetColor
	} else {
		displayMethod = Gray + paddedMethod + ResetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}
