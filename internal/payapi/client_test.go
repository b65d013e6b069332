package payapi

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

func testClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, logging.New(nil, "silent", "json"))
}

func TestListRecipients(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction-service/p2p/recipient", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"r1","name":"Ali Karimov","masked":"8600 **** **** 1234"}]`))
	}))

	got, err := c.ListRecipients(context.Background(), "tok-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "r1", got[0].ID)
	assert.Equal(t, "Ali Karimov", got[0].Name)
}

func TestListCardsDropsHeaderRowAndFlattens(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dashboard/card-service/card/read-by-userId/u-7", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"header"},
			{"id":"c1","holder":"ALI KARIMOV","masked":"8600 **** **** 1111","balance":150000,
			 "processing":"UZCARD","main":true,
			 "currency":{"code":"UZS"},"bank":{"title":"Kapitalbank"}}
		]`))
	}))

	got, err := c.ListCards(context.Background(), "tok", "u-7")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].ID)
	assert.Equal(t, "UZS", got[0].Currency)
	assert.Equal(t, "Kapitalbank", got[0].Bank)
	assert.True(t, got[0].Main)
}

func TestListCardsEmptyResponse(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))

	got, err := c.ListCards(context.Background(), "tok", "u-7")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPrepaySendsMinorUnits(t *testing.T) {
	var body map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction-service/p2p/prepay", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id":"pay-55"}`))
	}))

	got, err := c.Prepay(context.Background(), "tok", PrepayRequest{
		Amount:       1500.5,
		RecipientID:  "r1",
		RecipientPAN: "8600123412341234",
		SenderCardID: "c1",
	})
	require.NoError(t, err)
	assert.Equal(t, "pay-55", got.ID)

	assert.Equal(t, float64(150050), body["amount"])
	assert.Equal(t, "UZS", body["currency"])
	sender := body["sender"].(map[string]any)
	assert.Equal(t, "c1", sender["id"])
	recipient := body["recipient"].(map[string]any)
	assert.Equal(t, "r1", recipient["id"])
	assert.Equal(t, "CARD", recipient["cardType"])
	assert.Equal(t, "8600123412341234", recipient["pan"])
}

func TestPrepayWithoutPaymentID(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"accepted"}`))
	}))

	got, err := c.Prepay(context.Background(), "tok", PrepayRequest{Amount: 10})
	require.NoError(t, err)
	assert.Empty(t, got.ID)
}

func TestPayPassesResultThrough(t *testing.T) {
	var body map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction-service/p2p/pay", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id":"pay-55","status":"PAID"}`))
	}))

	got, err := c.Pay(context.Background(), "tok", "pay-55", "556677")
	require.NoError(t, err)
	assert.Equal(t, "PAID", got["status"])
	assert.Equal(t, "pay-55", body["id"])
	assert.Equal(t, "556677", body["code"])
}

func TestGatewayErrorStatus(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
	}))

	_, err := c.ListRecipients(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestRecipientByID(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/transaction-service/p2p/recipient/r1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"r1","holder":"ALI KARIMOV","pan":"8600123412341234"}`))
	}))

	got, err := c.RecipientByID(context.Background(), "tok", "r1")
	require.NoError(t, err)
	assert.Equal(t, "8600123412341234", got.PAN)
}
