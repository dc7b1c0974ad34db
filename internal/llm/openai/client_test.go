package openai

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docinfer/internal/common"
	"docinfer/internal/llm"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRequest() llm.InferenceRequest {
	return llm.InferenceRequest{
		System:      "system prompt",
		User:        "user prompt",
		Schema:      llm.BuildMetadataJSONSchema(nil),
		Temperature: 0.1,
	}
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gemma2",
		"choices": []map[string]any{
			{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": content},
			},
		},
	})
	return string(b)
}

func newTestClient(baseURL string) *Client {
	return NewClient(Config{
		BaseURL:    baseURL,
		APIKey:     "test",
		Model:      "gemma2",
		Timeout:    5 * time.Second,
		RetryDelay: 10 * time.Millisecond,
	}, discardLogger())
}

func TestInferMetadata_Success(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion(`{"title":"Annual Report 2023"}`))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).InferMetadata(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, llm.RawStructured, res.Kind)
	assert.JSONEq(t, `{"title":"Annual Report 2023"}`, string(res.JSON))

	assert.Equal(t, "gemma2", gotBody["model"])
	rf, ok := gotBody["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_object", rf["type"])
	msgs, ok := gotBody["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 3)
}

func TestInferMetadata_FreeTextContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, completion("plain prose answer"))
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).InferMetadata(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, llm.RawText, res.Kind)
	assert.Equal(t, "plain prose answer", res.Text)
}

func TestInferMetadata_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"model not found","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).InferMetadata(context.Background(), testRequest())
	require.Error(t, err)
	kind, ok := common.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, common.KindBackendResponse, kind)
}

func TestInferMetadata_UnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := newTestClient(srv.URL).InferMetadata(context.Background(), testRequest())
	require.Error(t, err)
	kind, _ := common.KindOf(err)
	assert.Equal(t, common.KindBackendUnavailable, kind)
}

func TestInferMetadata_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"chatcmpl-test","object":"chat.completion","choices":[]}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).InferMetadata(context.Background(), testRequest())
	require.Error(t, err)
	kind, _ := common.KindOf(err)
	assert.Equal(t, common.KindBackendResponse, kind)
}
