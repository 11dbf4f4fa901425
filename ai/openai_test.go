package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chatResponse(content, refusal string) map[string]any {
	msg := map[string]any{"role": "assistant", "content": content}
	if refusal != "" {
		msg["refusal"] = refusal
	}
	return map[string]any{
		"id":      "chatcmpl-test",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   DefaultOpenAIModel,
		"choices": []any{map[string]any{"index": 0, "message": msg, "finish_reason": "stop"}},
	}
}

func TestOpenAICompleteDraft(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse(`{"title":"t"}`, ""))
	}))
	defer srv.Close()

	c := NewOpenAI("sk-test", "", srv.URL+"/v1", srv.Client())
	out, err := c.CompleteDraft(context.Background(), "instructions")
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t"}`, string(out))

	assert.Equal(t, DefaultOpenAIModel, got["model"])
	format, ok := got["response_format"].(map[string]any)
	require.True(t, ok, "response_format missing: %v", got)
	assert.Equal(t, "json_schema", format["type"])
	schema := format["json_schema"].(map[string]any)
	assert.Equal(t, "blog_draft", schema["name"])
	assert.Equal(t, true, schema["strict"])
	body := schema["schema"].(map[string]any)
	assert.Equal(t, false, body["additionalProperties"])
	assert.ElementsMatch(t, []any{"title", "summary", "sections"}, body["required"])
}

func TestOpenAIRefusal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse("", "I can't help with that."))
	}))
	defer srv.Close()

	c := NewOpenAI("sk-test", "", srv.URL+"/v1", srv.Client())
	_, err := c.CompleteDraft(context.Background(), "instructions")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refused")
}

func TestOpenAIHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited","type":"requests"}}`))
	}))
	defer srv.Close()

	c := NewOpenAI("sk-test", "", srv.URL+"/v1", srv.Client())
	_, err := c.CompleteDraft(context.Background(), "instructions")
	assert.Error(t, err)
}
