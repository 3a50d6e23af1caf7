package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/adhryush/voice-gateway/internal/admin"
	"github.com/adhryush/voice-gateway/internal/api"
	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/gateway"
	"github.com/adhryush/voice-gateway/internal/observability"
	"github.com/adhryush/voice-gateway/internal/providers/llm"
	"github.com/adhryush/voice-gateway/internal/providers/stt"
	"github.com/adhryush/voice-gateway/internal/providers/tts"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	observability.InitLogger(cfg.LogLevel, cfg.LogPretty)
	logger := observability.GetLogger()

	logger.Info().
		Str("port", cfg.Port).
		Str("public_backend_host", cfg.PublicBackendHost).
		Str("log_level", cfg.LogLevel).
		Bool("metrics_enabled", cfg.MetricsEnabled).
		Msg("voice gateway service starting")

	sttClient := stt.New(cfg)
	llmClient := llm.New(cfg)
	ttsClient := tts.New(cfg)
	telephonyClient := api.NewTelephonyClient(cfg)

	if cfg.RequireProviders {
		probeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		for name, check := range map[string]func(context.Context) (bool, error){
			"stt":       sttClient.HealthCheck,
			"llm":       llmClient.HealthCheck,
			"tts":       ttsClient.HealthCheck,
			"telephony": telephonyClient.HealthCheck,
		} {
			healthy, err := check(probeCtx)
			if err != nil || !healthy {
				logger.Fatal().Str("dependency", name).Err(err).Msg("required provider failed startup health probe")
			}
		}
	}

	gw := gateway.New(cfg, sttClient, llmClient, ttsClient)
	callStore := api.NewMemoryStore()

	mux := http.NewServeMux()
	mux.HandleFunc("/media-stream", gw.Handler())
	mux.HandleFunc("/flow", api.FlowHandler(cfg))
	mux.HandleFunc("/webhook", api.WebhookHandler(callStore))
	mux.HandleFunc("/api/calls/initiate", api.InitiateHandler(cfg, telephonyClient, callStore))
	mux.HandleFunc("/api/calls/history", api.HistoryHandler(callStore))
	mux.HandleFunc("/api/calls/active", api.ActiveCallsHandler(gw.Registry()))
	mux.HandleFunc("/api/calls/{id}/status", api.CallStatusHandler(callStore))
	mux.HandleFunc("/api/calls/", api.CallDetailHandler(callStore))
	mux.HandleFunc("/api/ai/status", api.AIStatusHandler(cfg, llmClient))
	mux.HandleFunc("/api/ai/conversation", api.AIConversationHandler(llmClient))

	mux.HandleFunc("/health", observability.HealthCheckHandler())
	mux.HandleFunc("/ready", observability.ReadinessHandler(
		sttClient.HealthCheck,
		llmClient.HealthCheck,
		ttsClient.HealthCheck,
		telephonyClient.HealthCheck,
	))

	if cfg.MetricsEnabled {
		mux.Handle("/metrics", promhttp.Handler())
		logger.Info().Msg("prometheus metrics enabled at /metrics")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	adminServer := admin.NewServer(cfg, gw.Registry())
	if adminServer != nil {
		go func() {
			if err := adminServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("admin rpc server stopped")
			}
		}()
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("media_stream_endpoint", fmt.Sprintf("ws://localhost:%s/media-stream", cfg.Port)).
			Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server...")

	gw.Registry().Drain()
	time.Sleep(time.Duration(cfg.ShutdownGraceSeconds) * time.Second)

	if adminServer != nil {
		adminServer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("server exited gracefully")
}
