package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice gateway service.
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`

	// PublicBackendHost is used to construct the wss://<host>/media-stream URL
	// returned by the flow endpoint. If it begins with "localhost" the ws
	// (not wss) scheme is used instead.
	PublicBackendHost string `envconfig:"BACKEND_DOMAIN" default:"localhost:8080"`

	// Telephony provider configuration
	TelephonyAPIKey  string `envconfig:"TELER_API_KEY" required:"true"`
	TelephonyBaseURL string `envconfig:"TELEPHONY_BASE_URL" default:"https://api.telephony-provider.example/v2"`

	// LLM configuration
	LLMAPIKey  string `envconfig:"ANTHROPIC_API_KEY" required:"true"`
	LLMBaseURL string `envconfig:"LLM_BASE_URL" default:"https://api.anthropic.com/v1/messages"`
	LLMModel   string `envconfig:"LLM_MODEL" default:"claude-haiku-4-5"`

	// STT/TTS provider configuration (Sarvam-shaped contract, see SPEC_FULL §6.4)
	SpeechAPIKey   string `envconfig:"SARVAM_API_KEY" required:"true"`
	STTBaseURL     string `envconfig:"STT_BASE_URL" default:"https://api.sarvam.ai/speech-to-text"`
	TTSBaseURL     string `envconfig:"TTS_BASE_URL" default:"https://api.sarvam.ai/text-to-speech"`
	STTModel        string `envconfig:"STT_MODEL" default:"saarika:v2"`
	TTSModel        string `envconfig:"TTS_MODEL" default:"bulbul:v1"`
	DefaultLanguage string `envconfig:"DEFAULT_LANGUAGE" default:"hi-IN"`

	// Audio / VAD configuration
	AudioBufferSize    int     `envconfig:"AUDIO_BUFFER_SIZE" default:"8192"`
	VADEnergyThreshold float64 `envconfig:"VAD_ENERGY_THRESHOLD" default:"300.0"`
	VADSilenceFrames   int     `envconfig:"VAD_SILENCE_FRAMES" default:"10"`

	// Call Session configuration
	MaxConversationHistory     int `envconfig:"MAX_CONVERSATION_HISTORY" default:"20"`
	SilenceWarningIntervalSecs int `envconfig:"SILENCE_WARNING_INTERVAL_SECONDS" default:"30"`
	MaxSilenceWarnings         int `envconfig:"MAX_SILENCE_WARNINGS" default:"2"`
	MinAccumulationMsBeforeSTT int `envconfig:"MIN_ACCUMULATION_MS_BEFORE_STT" default:"3000"`
	ShutdownGraceSeconds       int `envconfig:"SHUTDOWN_GRACE_SECONDS" default:"3"`
	MaxBufferMs                int `envconfig:"MAX_BUFFER_MS" default:"60000"`
	OutboundChunkSize          int `envconfig:"OUTBOUND_CHUNK_SIZE" default:"500"`
	OutboundQueueSize          int `envconfig:"OUTBOUND_QUEUE_SIZE" default:"32"`

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"`
	RetryMaxAttempts           int `envconfig:"RETRY_MAX_ATTEMPTS" default:"2"`
	RetryInitialBackoff        int `envconfig:"RETRY_INITIAL_BACKOFF" default:"250"`
	ProviderTimeoutSeconds     int `envconfig:"PROVIDER_TIMEOUT_SECONDS" default:"30"`

	// Rate limiting (Call Initiation Facade)
	InitiateRateLimitPerSecond float64 `envconfig:"INITIATE_RATE_LIMIT_PER_SECOND" default:"5.0"`

	// Admin / control-plane RPC
	AdminGRPCPort int `envconfig:"ADMIN_GRPC_PORT" default:"50051"`

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`

	// RequireProviders controls startup behavior when a provider adapter fails
	// its reachability probe: true refuses to start, false starts degraded.
	RequireProviders bool `envconfig:"REQUIRE_PROVIDERS" default:"false"`
}

// Load reads configuration from environment variables.
// It first attempts to load from .env file if it exists, then from environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments).
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.TelephonyAPIKey == "" {
		return fmt.Errorf("TELER_API_KEY is required")
	}
	if cfg.LLMAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if cfg.SpeechAPIKey == "" {
		return fmt.Errorf("SARVAM_API_KEY is required")
	}
	return nil
}

// GetEnv returns the value of an environment variable or a default value.
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
