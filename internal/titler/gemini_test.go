package titler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*GeminiAPI, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	g := NewGeminiAPI("test-key", "gemini-1.5-pro")
	g.baseURL = srv.URL
	return g, srv
}

func TestGeminiAPI_GenerateTitle(t *testing.T) {
	var gotPath, gotKey string
	var gotBody generateContentRequest

	g, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"parts": [{"text": "{\"title\": "}, {"text": "\"A Study\"}"}]}
			}]
		}`))
	})

	out, err := g.GenerateTitle(context.Background(), "prompt text")
	require.NoError(t, err)

	// Parts of the first candidate are concatenated.
	assert.Equal(t, `{"title": "A Study"}`, out)

	assert.Equal(t, "/models/gemini-1.5-pro:generateContent", gotPath)
	assert.Equal(t, "test-key", gotKey)
	require.Len(t, gotBody.Contents, 1)
	assert.Equal(t, "prompt text", gotBody.Contents[0].Parts[0].Text)
	require.NotNil(t, gotBody.SystemInstruction)
	assert.Equal(t, "application/json", gotBody.GenerationConfig.ResponseMIMEType)
}

func TestGeminiAPI_RateLimitIsTransient(t *testing.T) {
	g, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	})

	_, err := g.GenerateTitle(context.Background(), "prompt")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.True(t, isTransient(err))
}

func TestGeminiAPI_ServerErrorIsTransient(t *testing.T) {
	g, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "internal", http.StatusInternalServerError)
	})

	_, err := g.GenerateTitle(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, isTransient(err))
}

func TestGeminiAPI_ClientErrorIsPermanent(t *testing.T) {
	g, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusBadRequest)
	})

	_, err := g.GenerateTitle(context.Background(), "prompt")
	require.Error(t, err)
	assert.False(t, isTransient(err))
}

func TestGeminiAPI_TransportErrorIsTransient(t *testing.T) {
	g, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := g.GenerateTitle(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, isTransient(err))
}

func TestGeminiAPI_NoCandidates(t *testing.T) {
	g, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates": []}`))
	})

	out, err := g.GenerateTitle(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestIsTransient_ContextErrors(t *testing.T) {
	assert.False(t, isTransient(context.Canceled))
	assert.False(t, isTransient(context.DeadlineExceeded))
}

func TestIsTransient_GRPCStatusCodes(t *testing.T) {
	assert.True(t, isTransient(status.Error(codes.ResourceExhausted, "quota exceeded")))
	assert.True(t, isTransient(status.Error(codes.Unavailable, "service unavailable")))
	assert.True(t, isTransient(status.Error(codes.DeadlineExceeded, "deadline exceeded")))

	assert.False(t, isTransient(status.Error(codes.InvalidArgument, "bad request")))
	assert.False(t, isTransient(status.Error(codes.PermissionDenied, "forbidden")))

	// The vertex backend wraps client errors; classification must unwrap.
	wrapped := fmt.Errorf("failed to generate content from gemini: %w",
		status.Error(codes.Unavailable, "upstream connect error"))
	assert.True(t, isTransient(wrapped))
}
