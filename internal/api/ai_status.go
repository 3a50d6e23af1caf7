package api

import (
	"context"
	"net/http"
	"time"

	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/providers/llm"
)

// AIStatusHandler builds GET /api/ai/status: a reachability summary of the
// LLM dialogue provider, exposed as its own external HTTP surface distinct
// from the internal /ready probe (SPEC_FULL §6.1).
func AIStatusHandler(cfg *config.Config, llmClient *llm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		available, _ := llmClient.HealthCheck(ctx)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"llm_available": available,
				"service":       "anthropic",
				"model":         cfg.LLMModel,
			},
		})
	}
}
