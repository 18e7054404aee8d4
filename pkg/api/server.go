package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cbodonnell/netmove/pkg/api/handlers"
	"github.com/cbodonnell/netmove/pkg/api/middleware"
	"github.com/cbodonnell/netmove/pkg/log"
	"github.com/cbodonnell/netmove/pkg/state"
	"github.com/gorilla/mux"
)

type APIServer struct {
	server *http.Server
}

type NewAPIServerOptions struct {
	Port         int
	StateManager state.StateManager
	ServerID     string
	Version      string
}

// NewRouter creates the status API routes
func NewRouter(opts NewAPIServerOptions) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.NewLoggingMiddleware(), middleware.NewCORSMiddleware())
	r.HandleFunc("/healthz", handlers.HandleHealthz()).Methods(http.MethodGet)
	r.HandleFunc("/status", handlers.HandleStatus(opts.StateManager, opts.ServerID, opts.Version)).Methods(http.MethodGet)
	r.HandleFunc("/players", handlers.HandleListPlayers(opts.StateManager)).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/players/{clientID:[0-9]+}", handlers.HandleGetPlayer(opts.StateManager)).Methods(http.MethodGet, http.MethodOptions)
	return r
}

// NewAPIServer creates a new http.Server for handling API requests
func NewAPIServer(opts NewAPIServerOptions) *APIServer {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return &APIServer{
		server: server,
	}
}

// Start serves the API until Stop is called. Bind failures are returned.
func (s *APIServer) Start() error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on API address: %v", err)
	}
	log.Info("API server listening on %s", listener.Addr().String())

	go func() {
		if err := s.server.Serve(listener); err != nil {
			if errors.Is(err, http.ErrServerClosed) {
				log.Info("API server closed")
				return
			}
			log.Error("API server error: %v", err)
		}
	}()
	return nil
}

// Stop stops the APIServer
func (s *APIServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
