package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muzaffarq/paygent/internal/agent"
	"github.com/muzaffarq/paygent/internal/bus"
	"github.com/muzaffarq/paygent/internal/config"
	"github.com/muzaffarq/paygent/internal/llm"
	"github.com/muzaffarq/paygent/internal/logging"
	"github.com/muzaffarq/paygent/internal/store"
)

type testEnv struct {
	srv   *httptest.Server
	bus   *bus.MemoryBus
	creds *store.MemoryStore
}

func newTestEnv(t *testing.T, client llm.Client) testEnv {
	t.Helper()
	log := logging.New(nil, "silent", "json")
	b := bus.NewMemoryBus()
	t.Cleanup(func() { _ = b.Close() })
	creds := store.NewMemoryStore()

	if client == nil {
		client = &llm.MockClient{}
	}
	runner := agent.NewRunner(agent.RunnerConfig{}, client, agent.NewToolRegistry(), log)

	s := NewServer(config.ServerConfig{}, runner, creds, 300*time.Second, b, log)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return testEnv{srv: srv, bus: b, creds: creds}
}

func doJSON(t *testing.T, method, url, token, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestChatMintsSessionAndStoresCredentials(t *testing.T) {
	client := &llm.MockClient{
		CompleteFunc: func(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
			return &llm.CompletionResponse{Content: "Salom!"}, nil
		},
	}
	env := newTestEnv(t, client)

	resp, body := doJSON(t, "POST", env.srv.URL+"/api/v1/u-7/chat", "sello-tok",
		`{"query":"salom","history":[]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Salom!", body["answer"])

	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)

	creds, ok, err := env.creds.Get(context.Background(), sessionID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sello-tok", creds.Token)
	assert.Equal(t, "u-7", creds.UserID)
}

func TestChatEachRequestGetsFreshSession(t *testing.T) {
	env := newTestEnv(t, nil)

	_, first := doJSON(t, "POST", env.srv.URL+"/api/v1/u/chat", "tok", `{"query":"a"}`)
	_, second := doJSON(t, "POST", env.srv.URL+"/api/v1/u/chat", "tok", `{"query":"b"}`)
	assert.NotEqual(t, first["session_id"], second["session_id"])
}

func TestChatRequiresToken(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := doJSON(t, "POST", env.srv.URL+"/api/v1/u/chat", "", `{"query":"salom"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestChatRequiresQuery(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := doJSON(t, "POST", env.srv.URL+"/api/v1/u/chat", "tok", `{"query":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChoosePublishesSelection(t *testing.T) {
	env := newTestEnv(t, nil)

	sub, err := env.bus.Subscribe(context.Background(), bus.SelectChannel("corr-1"))
	require.NoError(t, err)
	defer sub.Close()

	resp, body := doJSON(t, "POST", env.srv.URL+"/api/v1/transactions/choose/corr-1", "tok",
		`{"recipient_id":" r-9 "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "r-9", body["recipient_id"])
	assert.Equal(t, "corr-1", body["correlation_id"])

	select {
	case msg := <-sub.Messages():
		assert.JSONEq(t, `{"recipient_id":"r-9"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("selection was not published")
	}
}

func TestChooseValidation(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, _ := doJSON(t, "POST", env.srv.URL+"/api/v1/transactions/choose/s", "tok", `{}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, "POST", env.srv.URL+"/api/v1/transactions/choose/s", "tok", `{"recipient_id":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, "POST", env.srv.URL+"/api/v1/transactions/choose/s", "", `{"recipient_id":"r"}`)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConfirmPublishesCode(t *testing.T) {
	env := newTestEnv(t, nil)

	sub, err := env.bus.Subscribe(context.Background(), bus.OTPChannel("pay-3"))
	require.NoError(t, err)
	defer sub.Close()

	resp, body := doJSON(t, "POST", env.srv.URL+"/api/v1/transactions/pay-3/confirm", "tok",
		`{"code":" 556677 "}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pay-3", body["payment_id"])

	select {
	case msg := <-sub.Messages():
		assert.JSONEq(t, `{"code":"556677"}`, string(msg))
	case <-time.After(time.Second):
		t.Fatal("code was not published")
	}
}

func TestConfirmRejectsEmptyCode(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, _ := doJSON(t, "POST", env.srv.URL+"/api/v1/transactions/pay-3/confirm", "tok", `{"code":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	resp, body := doJSON(t, "GET", env.srv.URL+"/api/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["ok"])
}
