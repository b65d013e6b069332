package faq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muzaffarq/paygent/internal/logging"
)

func TestAsk(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rag/ask_question", r.URL.Path)
		assert.Equal(t, "Bearer faq-tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`[{"answer":"Transfers settle instantly."}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "faq-tok", "sello", time.Second, logging.New(nil, "silent", "json"))
	got, err := c.Ask(context.Background(), "How fast are transfers?")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"answer":"Transfers settle instantly."}]`, string(got))
	assert.Equal(t, "sello", body["project_id"])
	assert.Equal(t, "How fast are transfers?", body["question"])
}

func TestAskServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok", "sello", time.Second, logging.New(nil, "silent", "json"))
	_, err := c.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
