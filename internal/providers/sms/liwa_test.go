package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newLiwaServer(t *testing.T, handler http.HandlerFunc) (*LiwaProvider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	provider := NewLiwaProvider(LiwaConfig{
		BaseURL:   srv.URL,
		Account:   "elclub",
		Password:  "secret",
		FromName:  "PAQUETES",
		CostCents: 50,
	})
	return provider, srv
}

func TestLiwaAuthenticate_Success(t *testing.T) {
	provider, _ := newLiwaServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "elclub", req["account"])
		assert.Equal(t, "secret", req["password"])

		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "token": "tok-123"})
	})

	token, err := provider.Authenticate(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestLiwaAuthenticate_RejectedCredentials(t *testing.T) {
	provider, _ := newLiwaServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := provider.Authenticate(context.Background())
	assert.True(t, IsAuthError(err))
}

func TestLiwaAuthenticate_UnsuccessfulBody(t *testing.T) {
	provider, _ := newLiwaServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": "bad credentials"})
	})

	_, err := provider.Authenticate(context.Background())
	assert.True(t, IsAuthError(err))
}

func TestLiwaSend_Success(t *testing.T) {
	provider, _ := newLiwaServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sms/send", r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))

		var req map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+573001234567", req["to"])
		assert.Equal(t, "PAQUETES", req["from"])

		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "message_id": "MSG-7"})
	})

	receipt, err := provider.Send(context.Background(), "tok-123", "+573001234567", "hola")
	assert.NoError(t, err)
	assert.Equal(t, "MSG-7", receipt.ProviderMessageID)
	assert.EqualValues(t, 50, receipt.CostCents)
}

func TestLiwaSend_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"expired token", http.StatusUnauthorized, IsAuthError},
		{"rate limited", http.StatusTooManyRequests, IsTransientError},
		{"gateway down", http.StatusInternalServerError, IsTransientError},
		{"bad recipient", http.StatusBadRequest, IsPermanentError},
		{"unprocessable", http.StatusUnprocessableEntity, IsPermanentError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider, _ := newLiwaServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})
			_, err := provider.Send(context.Background(), "tok", "+573001234567", "hola")
			assert.True(t, tc.check(err))
		})
	}
}
