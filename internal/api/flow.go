package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/observability"
)

// flowResponse is the stream descriptor returned to the telephony provider
// when a call is answered.
type flowResponse struct {
	Action    string `json:"action"`
	WSURL     string `json:"ws_url"`
	ChunkSize int    `json:"chunk_size"`
	Record    bool   `json:"record"`
}

// FlowHandler builds POST /flow. It is on the call-setup critical path: it
// must never block on an external service and must always return 200, even
// when the inbound body is malformed or missing entirely — a minimal
// fallback descriptor is still a usable answer for the provider.
func FlowHandler(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				observability.GetLogger().Error().Interface("panic", rec).Msg("flow endpoint recovered from panic")
				writeFlowResponse(w, cfg)
			}
		}()

		// Tolerate both JSON and form-encoded bodies; neither is load-
		// bearing for the response, so parse errors are ignored rather
		// than rejected.
		contentType := r.Header.Get("Content-Type")
		if strings.Contains(contentType, "application/x-www-form-urlencoded") {
			_ = r.ParseForm()
		} else {
			var discard map[string]any
			_ = json.NewDecoder(r.Body).Decode(&discard)
		}

		writeFlowResponse(w, cfg)
	}
}

func writeFlowResponse(w http.ResponseWriter, cfg *config.Config) {
	scheme := "wss"
	if strings.HasPrefix(cfg.PublicBackendHost, "localhost") {
		scheme = "ws"
	}

	resp := flowResponse{
		Action:    "stream",
		WSURL:     scheme + "://" + cfg.PublicBackendHost + "/media-stream",
		ChunkSize: cfg.OutboundChunkSize,
		Record:    true,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
