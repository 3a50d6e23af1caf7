package api

import (
	"encoding/json"
	"net/http"

	"github.com/adhryush/voice-gateway/internal/observability"
)

// WebhookHandler builds POST /webhook: the telephony provider's status
// callback. Grounded on fastapi_app.py's webhook_receiver, which scans
// call_history for a matching call_id and patches in the webhook payload.
func WebhookHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var data map[string]any
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "webhook received successfully"})
			return
		}

		observability.GetLogger().Info().Interface("payload", data).Msg("webhook payload received")

		callID := stringField(data, "call_id", "CallSid", "id")
		if callID != "" {
			store.Upsert(callID, func(rec *CallRecord) {
				rec.WebhookData = data
				if s, ok := data["status"].(string); ok && s != "" {
					rec.Status = s
				}
			})
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "webhook received successfully"})
	}
}

func stringField(data map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := data[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
