package api

import (
	"net/http"
	"strings"
)

// HistoryHandler builds GET /api/calls/history: the full, newest-first call
// history. Grounded on fastapi_app.py's get_call_history.
func HistoryHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records := store.List()
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    records,
			"count":   len(records),
		})
	}
}

// CallDetailHandler builds GET /api/calls/{call_id}: lookup of a single
// call record by id. Grounded on fastapi_app.py's get_call_details.
func CallDetailHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callID := strings.TrimPrefix(r.URL.Path, "/api/calls/")
		callID = strings.Trim(callID, "/")
		if callID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "call id required"})
			return
		}

		rec, ok := store.Get(callID)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "call not found"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": rec})
	}
}

// callStatusResponse is the slim status projection returned by
// GET /api/calls/{id}/status, distinct from the full CallRecord
// CallDetailHandler returns (SPEC_FULL §6.1).
type callStatusResponse struct {
	CallID      string `json:"call_id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	WebhookData any    `json:"webhook_data"`
}

// CallStatusHandler builds GET /api/calls/{id}/status: a lightweight status
// projection for polling clients that don't need the full call record.
func CallStatusHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callID := r.PathValue("id")
		if callID == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "call id required"})
			return
		}

		rec, ok := store.Get(callID)
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "call not found"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data": callStatusResponse{
				CallID:      rec.CallID,
				Status:      rec.Status,
				Timestamp:   rec.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
				WebhookData: rec.WebhookData,
			},
		})
	}
}
