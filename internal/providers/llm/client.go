// Package llm implements the dialogue provider adapter:
// LLM.reply(history, input, language_hint, style_hint) -> string, a single
// JSON HTTP POST/response carrying the circuit-breaker/retry wiring style of
// the reference gRPC orchestrator client, but over plain HTTP.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adhryush/voice-gateway/internal/apperrors"
	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/language"
	"github.com/adhryush/voice-gateway/internal/observability"
	"github.com/adhryush/voice-gateway/internal/resilience"
)

// maxResponseTokens bounds LLM generation length per turn.
const maxResponseTokens = 500

// Turn is one entry of conversation_history: role is "user" or "assistant".
type Turn struct {
	Role    string
	Content string
}

// Client is the LLM adapter. One instance is shared process-wide.
type Client struct {
	cfg            *config.Config
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
}

// New creates the shared LLM adapter.
func New(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.ProviderTimeoutSeconds) * time.Second,
		},
		circuitBreaker: resilience.NewCircuitBreaker(
			"llm",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type requestBody struct {
	Model     string    `json:"model"`
	Messages  []message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
}

// Reply generates the next assistant turn. On any provider failure it never
// propagates the error to the session — it logs the failure via the circuit
// breaker metrics and returns a language-appropriate canned fallback.
func (c *Client) Reply(ctx context.Context, history []Turn, currentInput, languageHint, styleHint string) string {
	text, err := c.reply(ctx, history, currentInput, languageHint, styleHint)
	if err != nil {
		observability.UpdateCircuitBreakerState("llm", int(c.circuitBreaker.GetState()))
		observability.IncrementCircuitBreakerFailures("llm")
		return fallback(languageHint)
	}
	return text
}

func fallback(languageHint string) string {
	replies := language.FallbackReplies(languageHint)
	// Deterministic pick (no time/random available): always the first
	// canned reply. A real deployment could round-robin on call count.
	return replies[0]
}

func (c *Client) reply(ctx context.Context, history []Turn, currentInput, languageHint, styleHint string) (string, error) {
	messages := make([]message, 0, len(history)+1)
	for _, turn := range history {
		messages = append(messages, message{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, message{Role: "user", Content: currentInput})

	reqBody := requestBody{
		Model:     c.cfg.LLMModel,
		Messages:  messages,
		MaxTokens: maxResponseTokens,
		System:    fmt.Sprintf("%s Respond only in %s.", styleHint, languageHint),
	}

	var text string
	err := c.circuitBreaker.Call(func() error {
		retryCfg := &resilience.RetryConfig{
			MaxAttempts:       c.cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(c.cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		}

		return resilience.Retry(func() error {
			t, callErr := c.doReply(ctx, reqBody)
			if callErr != nil {
				return callErr
			}
			text = t
			return nil
		}, retryCfg, apperrors.IsRetryable)
	})

	if err != nil {
		return "", err
	}
	return text, nil
}

func (c *Client) doReply(ctx context.Context, reqBody requestBody) (string, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal llm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.LLMBaseURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to build llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.LLMAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", &apperrors.ProviderTimeout{Provider: "llm"}
		}
		return "", &apperrors.ProviderUnavailable{Provider: "llm", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &apperrors.ProviderUnavailable{Provider: "llm", Cause: err}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return "", &apperrors.ProviderInputError{Provider: "llm", StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode >= 500 {
		return "", &apperrors.ProviderUnavailable{Provider: "llm", Cause: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}

	var parsed struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &apperrors.ProviderInputError{Provider: "llm", StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}

	for _, block := range parsed.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}

	return "", &apperrors.ProviderInputError{Provider: "llm", StatusCode: resp.StatusCode, Message: "no text content in response"}
}

// HealthCheck probes LLM reachability for the readiness endpoint.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	return c.circuitBreaker.GetState() != resilience.StateOpen, nil
}
