package gateway

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/muzaffarq/paygent/internal/bus"
)

// handleEvents upgrades to WebSocket and relays the broadcast event stream
// until the client disconnects. The token query parameter is required; a
// UI without one gets rejected before the upgrade.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("token") == "" {
		writeError(w, http.StatusUnauthorized, "token query parameter is required")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sub, err := s.bus.Subscribe(r.Context(), bus.BroadcastChannel())
	if err != nil {
		s.log.Error().Err(err).Msg("subscribing to event stream")
		return
	}
	defer sub.Close()

	s.log.Debug().Str("remote", r.RemoteAddr).Msg("event stream attached")

	// Reader goroutine: its only job is to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg, ok := <-sub.Messages():
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-done:
			return
		case <-r.Context().Done():
			return
		}
	}
}
