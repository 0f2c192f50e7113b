package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hashicorp/go-retryablehttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"pichat/internal/config"
)

// geminiClient implements Client against the Gemini generateContent REST API.
// It is safe for concurrent use by multiple goroutines.
type geminiClient struct {
	http    *http.Client
	baseURL string
	model   string
	apiKey  string
}

// NewGemini creates a Gemini API client. Requests are retried on transient
// failures and instrumented with OpenTelemetry.
func NewGemini(cfg config.LLMConfig) (Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrAPIKeyRequired
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = cfg.RetryMax
	rc.Logger = nil
	rc.HTTPClient.Timeout = cfg.Timeout
	rc.HTTPClient.Transport = otelhttp.NewTransport(http.DefaultTransport)

	return &geminiClient{
		http:    rc.StandardClient(),
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		apiKey:  cfg.APIKey,
	}, nil
}

func (g *geminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	req := generateRequest{
		Contents: []Content{{Role: "user", Parts: []Part{{Text: prompt}}}},
	}
	content, err := g.generate(ctx, &req)
	if err != nil {
		return "", err
	}
	return content.Text(), nil
}

func (g *geminiClient) Chat(ctx context.Context, system string, contents []Content, decls []FunctionDeclaration) (*Content, error) {
	req := generateRequest{Contents: contents}
	if system != "" {
		req.SystemInstruction = &Content{Parts: []Part{{Text: system}}}
	}
	if len(decls) > 0 {
		req.Tools = []toolSpec{{FunctionDeclarations: decls}}
		req.ToolConfig = &toolConfig{FunctionCallingConfig: functionCallingConfig{Mode: "AUTO"}}
	}
	return g.generate(ctx, &req)
}

func (g *geminiClient) generate(ctx context.Context, req *generateRequest) (*Content, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("call gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Keep a short error excerpt; API error bodies can be large.
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gemini status %d: %s", resp.StatusCode, bytes.TrimSpace(excerpt))
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(out.Candidates) == 0 {
		if out.PromptFeedback != nil && out.PromptFeedback.BlockReason != "" {
			return nil, fmt.Errorf("%w (blocked: %s)", ErrNoCandidates, out.PromptFeedback.BlockReason)
		}
		return nil, ErrNoCandidates
	}

	content := out.Candidates[0].Content
	return &content, nil
}
