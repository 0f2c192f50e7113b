package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pichat/internal/config"
)

func testConfig(baseURL string) config.LLMConfig {
	return config.LLMConfig{
		APIKey:   "test-key",
		Model:    "gemini-2.0-flash-001",
		BaseURL:  baseURL,
		Timeout:  5 * time.Second,
		RetryMax: 0,
	}
}

func TestNewGeminiRequiresAPIKey(t *testing.T) {
	_, err := NewGemini(config.LLMConfig{})
	assert.ErrorIs(t, err, ErrAPIKeyRequired)
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.0-flash-001:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "user", req.Contents[0].Role)
		assert.Empty(t, req.Tools)

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{
					"role":  "model",
					"parts": []map[string]any{{"text": "a fun fact"}},
				}},
			},
		})
	}))
	defer srv.Close()

	cli, err := NewGemini(testConfig(srv.URL))
	require.NoError(t, err)

	text, err := cli.Generate(context.Background(), "tell me a fun fact")
	assert.NoError(t, err)
	assert.Equal(t, "a fun fact", text)
}

func TestChatWithFunctionCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		require.NotNil(t, req.SystemInstruction)
		require.Len(t, req.Tools, 1)
		assert.Equal(t, "send_chat_message", req.Tools[0].FunctionDeclarations[0].Name)
		require.NotNil(t, req.ToolConfig)
		assert.Equal(t, "AUTO", req.ToolConfig.FunctionCallingConfig.Mode)

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{
					"role": "model",
					"parts": []map[string]any{
						{"functionCall": map[string]any{
							"name": "send_chat_message",
							"args": map[string]any{"to": "pi2", "message": "hello"},
						}},
					},
				}},
			},
		})
	}))
	defer srv.Close()

	cli, err := NewGemini(testConfig(srv.URL))
	require.NoError(t, err)

	decls := []FunctionDeclaration{{
		Name:        "send_chat_message",
		Description: "Send a chat message to the peer node.",
		Parameters: &Schema{
			Type: "OBJECT",
			Properties: map[string]*Schema{
				"to":      {Type: "STRING"},
				"message": {Type: "STRING"},
			},
			Required: []string{"to", "message"},
		},
	}}

	contents := []Content{{Role: "user", Parts: []Part{{Text: "start the conversation"}}}}

	out, err := cli.Chat(context.Background(), "you are pi1", contents, decls)
	require.NoError(t, err)

	calls := out.FunctionCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "send_chat_message", calls[0].Name)
	assert.Equal(t, "pi2", calls[0].Args["to"])
}

func TestChatNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"promptFeedback": map[string]any{"blockReason": "SAFETY"},
		})
	}))
	defer srv.Close()

	cli, err := NewGemini(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = cli.Chat(context.Background(), "", []Content{{Role: "user", Parts: []Part{{Text: "hi"}}}}, nil)
	assert.ErrorIs(t, err, ErrNoCandidates)
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestGenerateAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	cli, err := NewGemini(testConfig(srv.URL))
	require.NoError(t, err)

	_, err = cli.Generate(context.Background(), "hi")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
}

func TestContentHelpers(t *testing.T) {
	c := &Content{Parts: []Part{
		{Text: "part one "},
		{FunctionCall: &FunctionCall{Name: "display_message"}},
		{Text: "part two"},
	}}

	assert.Equal(t, "part one part two", c.Text())
	assert.Len(t, c.FunctionCalls(), 1)

	var nilContent *Content
	assert.Equal(t, "", nilContent.Text())
	assert.Nil(t, nilContent.FunctionCalls())
}
