package gateway

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/muzaffarq/paygent/internal/agent"
	"github.com/muzaffarq/paygent/internal/bus"
	"github.com/muzaffarq/paygent/internal/llm"
)

// chatMessage is one prior turn supplied by the client. The backend keeps
// no conversation history of its own.
type chatMessage struct {
	Role  string `json:"role"`
	Query string `json:"query"`
}

type chatRequest struct {
	Query   string        `json:"query"`
	History []chatMessage `json:"history"`
}

type chooseRequest struct {
	RecipientID *string `json:"recipient_id"`
	CardID      *string `json:"card_id"`
}

type confirmRequest struct {
	Code string `json:"code"`
}

// handleChat mints a session, stores the caller's credentials under it, and
// runs the agent. The session id returned here is what ties later choose
// and confirm calls back to this user.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	userID := r.PathValue("userID")

	var body chatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	sessionID := uuid.NewString()
	if err := s.creds.Put(r.Context(), sessionID, sessionCredentials(token, userID), s.sessionTTL); err != nil {
		s.log.Error().Err(err).Msg("storing session credentials")
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	history := make([]llm.Message, 0, len(body.History))
	for _, m := range body.History {
		role := llm.RoleUser
		if m.Role == "assistant" || m.Role == "model" {
			role = llm.RoleAssistant
		}
		history = append(history, llm.Message{Role: role, Content: m.Query})
	}

	result, err := s.runner.Run(r.Context(), agent.RunInput{
		SessionID: sessionID,
		Query:     body.Query,
		History:   history,
	})
	if err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("agent run failed")
		writeError(w, http.StatusBadGateway, "agent failed to answer")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":     result.Response,
		"session_id": sessionID,
	})
}

// handleChoose relays a recipient or card selection to the waiting
// transfer run. The correlation id comes from the broadcast choice event
// the UI rendered; each selection step has its own.
func (s *Server) handleChoose(w http.ResponseWriter, r *http.Request) {
	if _, ok := bearerToken(r); !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	correlationID := r.PathValue("correlationID")

	var body chooseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	payload := map[string]string{}
	if body.RecipientID != nil {
		rid := strings.TrimSpace(*body.RecipientID)
		if rid == "" {
			writeError(w, http.StatusBadRequest, "recipient_id cannot be empty")
			return
		}
		payload["recipient_id"] = rid
	}
	if body.CardID != nil {
		cid := strings.TrimSpace(*body.CardID)
		if cid == "" {
			writeError(w, http.StatusBadRequest, "card_id cannot be empty")
			return
		}
		payload["card_id"] = cid
	}
	if len(payload) == 0 {
		writeError(w, http.StatusBadRequest, "either recipient_id or card_id is required")
		return
	}

	raw, _ := json.Marshal(payload)
	if err := s.bus.Publish(r.Context(), bus.SelectChannel(correlationID), raw); err != nil {
		s.log.Error().Err(err).Str("correlation_id", correlationID).Msg("publishing selection")
		writeError(w, http.StatusInternalServerError, "failed to deliver selection")
		return
	}

	resp := map[string]any{"ok": true, "correlation_id": correlationID}
	for k, v := range payload {
		resp[k] = v
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleConfirm relays the one-time code to the waiting transfer run on the
// payment's OTP channel.
func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	if _, ok := bearerToken(r); !ok {
		writeError(w, http.StatusUnauthorized, "missing bearer token")
		return
	}
	paymentID := r.PathValue("paymentID")

	var body confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	code := strings.TrimSpace(body.Code)
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing code")
		return
	}

	raw, _ := json.Marshal(map[string]string{"code": code})
	if err := s.bus.Publish(r.Context(), bus.OTPChannel(paymentID), raw); err != nil {
		s.log.Error().Err(err).Str("payment_id", paymentID).Msg("publishing code")
		writeError(w, http.StatusInternalServerError, "failed to deliver code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "payment_id": paymentID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
