// Package backend implements the HTTP client for translation backends.
//
// A backend is an opaque text-completion service identified by an
// address, a model name, a per-request timeout and a sampling
// temperature. Two wire formats are supported:
//
//   - KindOllama: POST {host}/api/generate with the Ollama native
//     request shape, response text in the "response" field.
//   - KindOpenAI: POST {host}/chat/completions with the OpenAI chat
//     shape (works for any OpenAI-compatible endpoint).
//
// Generate performs exactly one request. Retry and fallback policy is
// the job runner's responsibility, not this package's.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Backend kinds
// ---------------------------------------------------------------------------

// Kind selects the wire format spoken to the backend.
type Kind string

const (
	KindOllama Kind = "ollama"
	KindOpenAI Kind = "openai"
)

// ---------------------------------------------------------------------------
// Configuration
// ---------------------------------------------------------------------------

// Config identifies one reachable backend. Instances are immutable for
// the duration of a run and safe to share across workers.
type Config struct {
	// Kind is the wire format (default: ollama).
	Kind Kind
	// Host is the base URL, e.g. "http://localhost:11434".
	Host string
	// Model is the model identifier.
	Model string
	// APIKey authenticates OpenAI-compatible endpoints (empty for local).
	APIKey string
	// Proxy is an optional HTTP/HTTPS proxy URL.
	Proxy string
	// Timeout bounds a single request.
	Timeout time.Duration
	// Temperature is the sampling temperature (0 for deterministic output).
	Temperature float64
}

func (c Config) effectiveTimeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return 120 * time.Second
}

func (c Config) endpoint() string {
	base := strings.TrimRight(c.Host, "/")
	switch c.Kind {
	case KindOpenAI:
		if strings.HasSuffix(base, "/chat/completions") {
			return base
		}
		return base + "/chat/completions"
	default:
		return base + "/api/generate"
	}
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrTransport marks connection, timeout, and non-success status
	// failures.
	ErrTransport = errors.New("backend transport failure")
	// ErrMalformedResponse marks replies whose body could not be parsed.
	ErrMalformedResponse = errors.New("malformed backend response")
)

// ---------------------------------------------------------------------------
// HTTP client
// ---------------------------------------------------------------------------

func makeHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if proxyURL != "" {
		if parsed, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(parsed)
		}
	} else {
		transport.Proxy = http.ProxyFromEnvironment
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// ---------------------------------------------------------------------------
// Request builders
// ---------------------------------------------------------------------------

func buildOllamaRequest(cfg Config, prompt string) ([]byte, error) {
	req := struct {
		Model   string `json:"model"`
		Prompt  string `json:"prompt"`
		Stream  bool   `json:"stream"`
		Options struct {
			Temperature float64 `json:"temperature"`
		} `json:"options"`
	}{
		Model:  cfg.Model,
		Prompt: prompt,
		Stream: false,
	}
	req.Options.Temperature = cfg.Temperature
	return json.Marshal(req)
}

func buildOpenAIRequest(cfg Config, prompt string) ([]byte, error) {
	type msg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	req := struct {
		Model       string  `json:"model"`
		Messages    []msg   `json:"messages"`
		Temperature float64 `json:"temperature"`
		Stream      bool    `json:"stream"`
	}{
		Model:       cfg.Model,
		Messages:    []msg{{Role: "user", Content: prompt}},
		Temperature: cfg.Temperature,
		Stream:      false,
	}
	return json.Marshal(req)
}

// ---------------------------------------------------------------------------
// Response parsing
// ---------------------------------------------------------------------------

// extractResponseText pulls the generated text out of a backend reply,
// accepting the Ollama native shape and the OpenAI chat shape.
func extractResponseText(body []byte) (string, error) {
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("%w: invalid JSON: %v", ErrMalformedResponse, err)
	}

	if errObj, ok := raw["error"]; ok {
		if errMap, ok := errObj.(map[string]any); ok {
			if msg, ok := errMap["message"].(string); ok {
				return "", fmt.Errorf("%w: API error: %s", ErrMalformedResponse, msg)
			}
		}
		return "", fmt.Errorf("%w: API error: %v", ErrMalformedResponse, errObj)
	}

	// Ollama native: {"response": "..."}
	if resp, ok := raw["response"].(string); ok {
		return resp, nil
	}

	// OpenAI chat: choices[0].message.content
	if choices, ok := raw["choices"].([]any); ok && len(choices) > 0 {
		if choice, ok := choices[0].(map[string]any); ok {
			if message, ok := choice["message"].(map[string]any); ok {
				if content, ok := message["content"].(string); ok {
					return content, nil
				}
			}
		}
	}

	return "", fmt.Errorf("%w: no text in response: %s", ErrMalformedResponse, truncate(string(body), 300))
}

// ---------------------------------------------------------------------------
// Generate
// ---------------------------------------------------------------------------

// Generate sends one prompt to the configured backend and returns its
// trimmed text response. Transport failures (connection, timeout,
// non-success status) wrap ErrTransport; unparsable bodies wrap
// ErrMalformedResponse. The call is stateless.
func Generate(ctx context.Context, cfg Config, prompt string) (string, error) {
	var body []byte
	var err error
	switch cfg.Kind {
	case KindOpenAI:
		body, err = buildOpenAIRequest(cfg, prompt)
	default:
		body, err = buildOllamaRequest(cfg, prompt)
	}
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", cfg.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if cfg.Kind == KindOpenAI && cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}

	client := makeHTTPClient(cfg.Proxy, cfg.effectiveTimeout())
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTransport, err)
	}

	respBody, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, truncate(string(respBody), 300))
	}

	text, err := extractResponseText(respBody)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
