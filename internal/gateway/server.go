// Package gateway is the HTTP and WebSocket front door: it mints sessions,
// runs the agent, relays broadcast events to connected UIs, and accepts the
// out-of-band selection and confirmation replies.
package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/muzaffarq/paygent/internal/agent"
	"github.com/muzaffarq/paygent/internal/bus"
	"github.com/muzaffarq/paygent/internal/config"
	"github.com/muzaffarq/paygent/internal/domain"
	"github.com/muzaffarq/paygent/internal/logging"
	"github.com/muzaffarq/paygent/internal/store"
)

// Server is the paygent HTTP + WebSocket server.
type Server struct {
	cfg        config.ServerConfig
	log        *logging.Logger
	runner     *agent.Runner
	creds      store.CredentialStore
	sessionTTL time.Duration
	bus        bus.Bus

	httpServer *http.Server
	upgrader   websocket.Upgrader
}

// NewServer wires the front door over its collaborators.
func NewServer(cfg config.ServerConfig, runner *agent.Runner, creds store.CredentialStore, sessionTTL time.Duration, b bus.Bus, log *logging.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		log:        log.Sub("gateway"),
		runner:     runner,
		creds:      creds,
		sessionTTL: sessionTTL,
		bus:        b,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || isOriginAllowed(origin, cfg.AllowedOrigins)
		},
	}
	return s
}

// Handler builds the route table wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/{userID}/chat", s.handleChat)
	mux.HandleFunc("POST /api/v1/transactions/choose/{correlationID}", s.handleChoose)
	mux.HandleFunc("POST /api/v1/transactions/{paymentID}/confirm", s.handleConfirm)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return withMiddleware(mux, s.log, s.cfg.AllowedOrigins)
}

// Start runs the server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Bind, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("gateway listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "paygent"})
}

// sessionCredentials is what the chat handler stores for downstream tools.
func sessionCredentials(token, userID string) domain.Credentials {
	return domain.Credentials{Token: token, UserID: userID}
}
