// Package stt implements the batch speech-to-text provider adapter:
// STT.transcribe(pcm, source_lang) -> {text, detected_lang}, a single
// multipart HTTP POST per call, circuit-breaker and retry wrapped like the
// reference streaming client it replaces.
package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/adhryush/voice-gateway/internal/apperrors"
	"github.com/adhryush/voice-gateway/internal/audio"
	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/observability"
	"github.com/adhryush/voice-gateway/internal/resilience"
)

// Result is the outcome of a transcription call.
type Result struct {
	Text         string
	DetectedLang string
}

// Client is the batch STT adapter. One instance is shared process-wide
// across all Call Sessions; it holds no per-call state besides the HTTP
// connection pool and the circuit breaker's counters.
type Client struct {
	cfg            *config.Config
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
}

// New creates the shared STT adapter.
func New(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.ProviderTimeoutSeconds) * time.Second,
		},
		circuitBreaker: resilience.NewCircuitBreaker(
			"stt",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
	}
}

// Transcribe sends pcm (raw 16-bit LE mono PCM at 8kHz) wrapped as WAV to the
// STT provider and returns the transcript. Empty text with empty
// DetectedLang indicates silence, not an error.
func (c *Client) Transcribe(ctx context.Context, pcm []byte, sourceLang string) (Result, error) {
	wav := audio.PCMToWAV(pcm, 8000, 1, audio.SampleWidth)

	var result Result
	err := c.circuitBreaker.Call(func() error {
		retryCfg := &resilience.RetryConfig{
			MaxAttempts:       c.cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(c.cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		}

		return resilience.Retry(func() error {
			r, callErr := c.doTranscribe(ctx, wav, sourceLang)
			if callErr != nil {
				return callErr
			}
			result = r
			return nil
		}, retryCfg, apperrors.IsRetryable)
	})

	observability.UpdateCircuitBreakerState("stt", int(c.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("stt")
		return Result{}, err
	}

	return result, nil
}

func (c *Client) doTranscribe(ctx context.Context, wav []byte, sourceLang string) (Result, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("language_code", sourceLang); err != nil {
		return Result{}, fmt.Errorf("failed to write language_code field: %w", err)
	}
	if err := writer.WriteField("model", c.cfg.STTModel); err != nil {
		return Result{}, fmt.Errorf("failed to write model field: %w", err)
	}

	part, err := writer.CreateFormFile("audio.wav", "audio.wav")
	if err != nil {
		return Result{}, fmt.Errorf("failed to create audio.wav form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return Result{}, fmt.Errorf("failed to write wav payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return Result{}, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.STTBaseURL, body)
	if err != nil {
		return Result{}, fmt.Errorf("failed to build stt request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("API-Subscription-Key", c.cfg.SpeechAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, &apperrors.ProviderTimeout{Provider: "stt"}
		}
		return Result{}, &apperrors.ProviderUnavailable{Provider: "stt", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &apperrors.ProviderUnavailable{Provider: "stt", Cause: err}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return Result{}, &apperrors.ProviderInputError{
			Provider: "stt", StatusCode: resp.StatusCode, Message: string(respBody),
		}
	}
	if resp.StatusCode >= 500 {
		return Result{}, &apperrors.ProviderUnavailable{
			Provider: "stt", Cause: fmt.Errorf("status %d: %s", resp.StatusCode, respBody),
		}
	}

	var parsed struct {
		Transcript string `json:"transcript"`
		Language   string `json:"language"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return Result{}, &apperrors.ProviderInputError{
			Provider: "stt", StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error(),
		}
	}

	return Result{Text: parsed.Transcript, DetectedLang: parsed.Language}, nil
}

// HealthCheck probes STT reachability for the readiness endpoint.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	return c.circuitBreaker.GetState() != resilience.StateOpen, nil
}
