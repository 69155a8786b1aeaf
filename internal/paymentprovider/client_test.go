package paymentprovider

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature(t *testing.T) {
	client := New("server-key", "https://app.example.com", "https://api.example.com")

	notification := WebhookNotification{
		OrderID:           "order-1",
		StatusCode:        "200",
		GrossAmount:       "99000.00",
		TransactionStatus: StatusSettlement,
	}

	sum := sha512.Sum512([]byte("order-1" + "200" + "99000.00" + "server-key"))
	notification.SignatureKey = hex.EncodeToString(sum[:])
	assert.True(t, client.VerifySignature(notification))

	notification.SignatureKey = "forged"
	assert.False(t, client.VerifySignature(notification))

	notification.GrossAmount = "1.00"
	notification.SignatureKey = hex.EncodeToString(sum[:])
	assert.False(t, client.VerifySignature(notification))
}

func TestCreateTransaction(t *testing.T) {
	snapServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/snap/v1/transactions", r.URL.Path)
		assert.Contains(t, r.Header.Get("Authorization"), "Basic ")

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"token": "snap-token", "redirect_url": "https://pay.example.com/snap-token"}`))
	}))
	defer snapServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("transaction creation must not hit the core API host")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer apiServer.Close()

	client := New("server-key", snapServer.URL, apiServer.URL)
	resp, err := client.CreateTransaction(context.Background(), TransactionRequest{
		TransactionDetails: TransactionDetails{OrderID: "order-1", GrossAmount: 99000},
	})

	require.NoError(t, err)
	assert.Equal(t, "snap-token", resp.Token)
	assert.Equal(t, "https://pay.example.com/snap-token", resp.RedirectURL)
}

func TestCheckStatus(t *testing.T) {
	snapServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("status lookup must not hit the Snap host")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer snapServer.Close()

	apiServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/order-1/status", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"order_id": "order-1", "transaction_status": "settlement"}`))
	}))
	defer apiServer.Close()

	client := New("server-key", snapServer.URL, apiServer.URL)
	status, err := client.CheckStatus(context.Background(), "order-1")

	require.NoError(t, err)
	assert.Equal(t, StatusSettlement, status.TransactionStatus)
}

func TestCheckStatusUnexpectedCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := New("server-key", server.URL, server.URL)
	_, err := client.CheckStatus(context.Background(), "missing")

	require.Error(t, err)
}
