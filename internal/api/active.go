package api

import (
	"net/http"

	"github.com/adhryush/voice-gateway/internal/gateway"
)

// ActiveCallsHandler builds GET /api/calls/active: the live sessions held by
// the Media Gateway's Registry. Grounded on fastapi_app.py's
// get_active_calls, rebuilt against the Registry instead of a raw
// connection-id->dict map.
func ActiveCallsHandler(registry *gateway.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessions := registry.List()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    sessions,
			"count":   len(sessions),
		})
	}
}
