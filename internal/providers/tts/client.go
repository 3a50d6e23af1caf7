// Package tts implements the speech-synthesis provider adapter:
// TTS.synthesize(text, language, speaker) -> pcm, a single JSON HTTP
// POST/response circuit-breaker and retry wrapped like the reference
// streaming Cartesia client it replaces.
package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adhryush/voice-gateway/internal/apperrors"
	"github.com/adhryush/voice-gateway/internal/audio"
	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/observability"
	"github.com/adhryush/voice-gateway/internal/resilience"
)

// providerSampleRate is the rate requested from the provider. We ask for 8kHz
// directly but still resample defensively if a response arrives at a
// different rate.
const providerSampleRate = 8000

// Client is the TTS adapter. One instance is shared process-wide.
type Client struct {
	cfg            *config.Config
	httpClient     *http.Client
	circuitBreaker *resilience.CircuitBreaker
}

// New creates the shared TTS adapter.
func New(cfg *config.Config) *Client {
	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.ProviderTimeoutSeconds) * time.Second,
		},
		circuitBreaker: resilience.NewCircuitBreaker(
			"tts",
			cfg.CircuitBreakerMaxFailures,
			time.Duration(cfg.CircuitBreakerResetTimeout)*time.Second,
		),
	}
}

type requestBody struct {
	Inputs              []string `json:"inputs"`
	TargetLanguageCode  string   `json:"target_language_code"`
	Speaker             string   `json:"speaker"`
	Pitch               float64  `json:"pitch"`
	Pace                float64  `json:"pace"`
	Loudness            float64  `json:"loudness"`
	SpeechSampleRate    int      `json:"speech_sample_rate"`
	EnablePreprocessing bool     `json:"enable_preprocessing"`
	Model               string   `json:"model"`
}

type responseBody struct {
	Audios []string `json:"audios"`
}

// Synthesize converts text to raw 16-bit LE mono PCM at 8kHz. On any
// provider failure the error is returned to the caller; unlike the LLM
// adapter there is no fallback here. The Call Session logs the failure and
// sends no audio for that utterance; no placeholder audio is played.
func (c *Client) Synthesize(ctx context.Context, text, lang, speaker string) ([]byte, error) {
	reqBody := requestBody{
		Inputs:              []string{text},
		TargetLanguageCode:  lang,
		Speaker:             speaker,
		Pitch:               0,
		Pace:                1.0,
		Loudness:            1.0,
		SpeechSampleRate:    providerSampleRate,
		EnablePreprocessing: true,
		Model:               c.cfg.TTSModel,
	}

	var pcm []byte
	err := c.circuitBreaker.Call(func() error {
		retryCfg := &resilience.RetryConfig{
			MaxAttempts:       c.cfg.RetryMaxAttempts,
			InitialBackoff:    time.Duration(c.cfg.RetryInitialBackoff) * time.Millisecond,
			MaxBackoff:        5 * time.Second,
			BackoffMultiplier: 2.0,
			Jitter:            true,
		}

		return resilience.Retry(func() error {
			p, callErr := c.doSynthesize(ctx, reqBody)
			if callErr != nil {
				return callErr
			}
			pcm = p
			return nil
		}, retryCfg, apperrors.IsRetryable)
	})

	observability.UpdateCircuitBreakerState("tts", int(c.circuitBreaker.GetState()))
	if err != nil {
		observability.IncrementCircuitBreakerFailures("tts")
		return nil, err
	}

	return pcm, nil
}

func (c *Client) doSynthesize(ctx context.Context, reqBody requestBody) ([]byte, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tts request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TTSBaseURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to build tts request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("API-Subscription-Key", c.cfg.SpeechAPIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &apperrors.ProviderTimeout{Provider: "tts"}
		}
		return nil, &apperrors.ProviderUnavailable{Provider: "tts", Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.ProviderUnavailable{Provider: "tts", Cause: err}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, &apperrors.ProviderInputError{Provider: "tts", StatusCode: resp.StatusCode, Message: string(respBody)}
	}
	if resp.StatusCode >= 500 {
		return nil, &apperrors.ProviderUnavailable{Provider: "tts", Cause: fmt.Errorf("status %d: %s", resp.StatusCode, respBody)}
	}

	var parsed responseBody
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &apperrors.ProviderInputError{Provider: "tts", StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	if len(parsed.Audios) == 0 {
		return nil, &apperrors.ProviderInputError{Provider: "tts", StatusCode: resp.StatusCode, Message: "no audio in response"}
	}

	return decodeAudio(parsed.Audios[0])
}

// decodeAudio base64-decodes a single audio entry and normalizes it to raw
// PCM at 8kHz: the provider may return either a bare PCM payload or a
// WAV-wrapped one (detected by the "RIFF" magic), and may emit a sample rate
// other than 8kHz despite the request, in which case it is resampled.
func decodeAudio(encoded string) ([]byte, error) {
	raw, err := audio.DecodeBase64(encoded)
	if err != nil {
		return nil, &apperrors.ProviderInputError{Provider: "tts", Message: "invalid base64 audio: " + err.Error()}
	}

	if len(raw) >= 4 && strings.HasPrefix(string(raw[:4]), "RIFF") {
		pcm, sampleRate, err := wavToPCMWithRate(raw)
		if err != nil {
			return nil, &apperrors.ProviderInputError{Provider: "tts", Message: "invalid wav audio: " + err.Error()}
		}
		if sampleRate != providerSampleRate {
			samples := audio.BytesToSamples(pcm)
			samples = audio.Resample(samples, sampleRate, providerSampleRate)
			pcm = audio.SamplesToBytes(samples)
		}
		return pcm, nil
	}

	return raw, nil
}

func wavToPCMWithRate(wav []byte) ([]byte, int, error) {
	sampleRate := providerSampleRate
	if len(wav) >= 28 {
		sampleRate = int(wav[24]) | int(wav[25])<<8 | int(wav[26])<<16 | int(wav[27])<<24
	}
	pcm, err := audio.WAVToPCM(wav)
	if err != nil {
		return nil, 0, err
	}
	return pcm, sampleRate, nil
}

// HealthCheck probes TTS reachability for the readiness endpoint.
func (c *Client) HealthCheck(ctx context.Context) (bool, error) {
	return c.circuitBreaker.GetState() != resilience.StateOpen, nil
}
