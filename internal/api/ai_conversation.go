package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/adhryush/voice-gateway/internal/providers/llm"
)

type conversationTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type conversationRequest struct {
	History      []conversationTurn `json:"history"`
	CurrentInput string             `json:"current_input"`
	CallID       string             `json:"call_id"`
	Context      string             `json:"context"`
}

// AIConversationHandler builds POST /api/ai/conversation: a standalone,
// one-shot entry point into the same LLM.reply the Call Session drives
// in-process, exposed as an external HTTP surface for clients that want an
// AI reply outside of an active telephony call (SPEC_FULL §6.1). Returns 503
// when the LLM circuit breaker has tripped, rather than silently falling
// back to canned copy the way an in-call turn does.
func AIConversationHandler(llmClient *llm.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req conversationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
			return
		}

		if req.CurrentInput == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Missing required field: current_input"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
		defer cancel()

		if available, _ := llmClient.HealthCheck(ctx); !available {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"success": false, "error": "LLM service unavailable"})
			return
		}

		history := make([]llm.Turn, 0, len(req.History))
		for _, t := range req.History {
			history = append(history, llm.Turn{Role: t.Role, Content: t.Content})
		}

		reply := llmClient.Reply(ctx, history, req.CurrentInput, "", req.Context)

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": map[string]any{
				"response":  reply,
				"timestamp": time.Now().Format(time.RFC3339),
			},
		})
	}
}
