package provider

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenAIProvider_GenerateContent(t *testing.T) {
	var gotPath, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"Hi there"}],"role":"model"},"finishReason":"STOP"}]}`)
	}))
	defer srv.Close()

	p, err := NewGenAIProvider(context.Background(), "secret", srv.URL, srv.Client())
	require.NoError(t, err)
	assert.Equal(t, "genai", p.Name())

	resp, err := p.GenerateContent(context.Background(), "gemini-1.5-flash", "hello")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(gotPath, "gemini-1.5-flash:generateContent"), gotPath)
	assert.Equal(t, "secret", gotKey)
	assert.Equal(t, "Hi there", resp["text"])
	assert.NotEmpty(t, resp["candidates"])
}

func TestGenAIProvider_NoText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	p, err := NewGenAIProvider(context.Background(), "secret", srv.URL, srv.Client())
	require.NoError(t, err)

	resp, err := p.GenerateContent(context.Background(), "m", "hello")
	require.NoError(t, err)
	_, hasText := resp["text"]
	assert.False(t, hasText)
}

func TestGenAIProvider_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"bad","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	p, err := NewGenAIProvider(context.Background(), "secret", srv.URL, srv.Client())
	require.NoError(t, err)

	_, err = p.GenerateContent(context.Background(), "m", "hello")
	require.Error(t, err)
}

func TestSplitAPIVersion(t *testing.T) {
	tests := []struct {
		in          string
		wantHost    string
		wantVersion string
	}{
		{"https://generativelanguage.googleapis.com/v1beta", "https://generativelanguage.googleapis.com/", "v1beta"},
		{"https://generativelanguage.googleapis.com/v1/", "https://generativelanguage.googleapis.com/", "v1"},
		{"https://generativelanguage.googleapis.com", "https://generativelanguage.googleapis.com", ""},
		{"http://127.0.0.1:9999/", "http://127.0.0.1:9999/", ""},
	}
	for _, tt := range tests {
		host, version := splitAPIVersion(tt.in)
		assert.Equal(t, tt.wantHost, host, tt.in)
		assert.Equal(t, tt.wantVersion, version, tt.in)
	}
}
