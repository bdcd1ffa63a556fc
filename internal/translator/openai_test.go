package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, reply func(req chatRequest) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		resp := chatResponse{}
		resp.Choices = []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: reply(req)}}}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func newTestClient(t *testing.T, url string, opts ...Option) *Client {
	t.Helper()
	client, err := NewClient(Config{
		APIKey:  "test-key",
		APIURL:  url,
		Model:   "gpt-3.5-turbo",
		Timeout: 5,
	}, opts...)
	require.NoError(t, err)
	return client
}

func TestClient_TranslateBatchSplitsOnSeparator(t *testing.T) {
	server := newChatServer(t, func(req chatRequest) string {
		// Echo the user content so segment order is observable.
		return req.Messages[1].Content
	})
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.TranslateBatch(context.Background(), []string{"one", "two", "three"}, "en", "fr")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, got)
}

func TestClient_TranslateBatchEmptyInput(t *testing.T) {
	client := newTestClient(t, "http://unused")
	got, err := client.TranslateBatch(context.Background(), nil, "en", "fr")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClient_DetectLanguageTrimsCode(t *testing.T) {
	server := newChatServer(t, func(chatRequest) string { return " FR \n" })
	defer server.Close()

	client := newTestClient(t, server.URL)
	code, err := client.DetectLanguage(context.Background(), "Bonjour tout le monde")
	require.NoError(t, err)
	assert.Equal(t, "fr", code)
}

func TestClient_DetectLanguageFallsBackLocally(t *testing.T) {
	server := newChatServer(t, func(chatRequest) string {
		return "The language appears to be French."
	})
	defer server.Close()

	client := newTestClient(t, server.URL, WithFallbackDetector(NewLocalDetector()))
	code, err := client.DetectLanguage(context.Background(), "Bonjour tout le monde, comment allez-vous aujourd'hui")
	require.NoError(t, err)
	assert.Equal(t, "fr", code)
}

func TestClient_DetectLanguageUnusableCodeWithoutFallback(t *testing.T) {
	server := newChatServer(t, func(chatRequest) string { return "dunno" })
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.DetectLanguage(context.Background(), "hello")
	assert.Error(t, err)
}

func TestClient_APIErrorSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(chatResponse{Error: &apiError{Message: "rate limited", Type: "rate_limit"}})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.TranslateBatch(context.Background(), []string{"x"}, "en", "fr")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestLocalDetector(t *testing.T) {
	d := NewLocalDetector()

	code, err := d.DetectLanguage(context.Background(), "This is clearly an English sentence with plenty of words.")
	require.NoError(t, err)
	assert.Equal(t, "en", code)

	_, err = d.DetectLanguage(context.Background(), "")
	assert.Error(t, err)
}
