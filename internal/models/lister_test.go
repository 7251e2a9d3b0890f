package models

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListAvailableModels_NoAPIKey(t *testing.T) {
	err := NewLister(Config{}).ListAvailableModels(context.Background(), &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNoKeys)
}

func TestFetch_OpenAI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models"), "unexpected path %s", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[
			{"id":"gpt-4o-mini","object":"model"},
			{"id":"gpt-4o-mini-tts","object":"model"},
			{"id":"tts-1","object":"model"},
			{"id":"text-embedding-3-small","object":"model"},
			{"id":"dall-e-3","object":"model"},
			{"id":"gpt-4.1","object":"model"}
		]}`))
	}))
	defer srv.Close()

	c, err := NewLister(Config{OpenAIKey: "test", OpenAIBaseURL: srv.URL + "/v1"}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4.1", "gpt-4o-mini"}, c.OpenAIChat)
	assert.Equal(t, []string{"gpt-4o-mini-tts", "tts-1"}, c.OpenAITTS)
	assert.Nil(t, c.Gemini, "gemini should be skipped without key")
}

func TestListAvailableModels_Gemini(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "models")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"models":[
			{"name":"models/gemini-2.5-flash"},
			{"name":"models/embedding-001"},
			{"name":"models/gemini-2.5-pro"}
		]}`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := NewLister(Config{GeminiKey: "test", GeminiBaseURL: srv.URL}).ListAvailableModels(context.Background(), &out)
	require.NoError(t, err)

	text := out.String()
	for _, want := range []string{"gemini-2.5-flash", "gemini-2.5-pro", "(no API key)"} {
		assert.Contains(t, text, want)
	}
	assert.NotContains(t, text, "embedding-001", "non gemini model listed")
}

func TestFetch_OpenAIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	_, err := NewLister(Config{OpenAIKey: "bad", OpenAIBaseURL: srv.URL}).Fetch(context.Background())
	assert.Error(t, err, "rejected key")
}
