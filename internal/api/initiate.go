package api

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/observability"
)

type initiateRequest struct {
	FromNumber        string `json:"from_number"`
	ToNumber          string `json:"to_number"`
	FlowURL           string `json:"flow_url"`
	StatusCallbackURL string `json:"status_callback_url"`
	Record            *bool  `json:"record"`
}

type initiateResponseData struct {
	CallID     string    `json:"call_id"`
	Status     string    `json:"status"`
	Message    string    `json:"message"`
	FromNumber string    `json:"from_number"`
	ToNumber   string    `json:"to_number"`
	FlowURL    string    `json:"flow_url"`
	Record     bool      `json:"record"`
	Timestamp  time.Time `json:"timestamp"`
}

type initiateResponse struct {
	Success bool                 `json:"success"`
	Data    initiateResponseData `json:"data"`
	Message string               `json:"message"`
}

// initiateLimiter rate-limits the Call Initiation Facade per remote address,
// matching the per-client limiter map in the reference rate-limit middleware
// but keyed on a single endpoint rather than every route.
type initiateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perSec   float64
}

func newInitiateLimiter(perSec float64) *initiateLimiter {
	return &initiateLimiter{limiters: make(map[string]*rate.Limiter), perSec: perSec}
}

func (l *initiateLimiter) allow(key string) bool {
	l.mu.Lock()
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.perSec), 1)
		l.limiters[key] = lim
	}
	l.mu.Unlock()
	return lim.Allow()
}

// InitiateHandler builds POST /api/calls/initiate: the Call Initiation
// Facade. Grounded on fastapi_app.py's initiate_call/create_teler_call.
func InitiateHandler(cfg *config.Config, telephony *TelephonyClient, store Store) http.HandlerFunc {
	limiter := newInitiateLimiter(cfg.InitiateRateLimitPerSecond)
	backendURL := "http://" + cfg.PublicBackendHost
	if !isLocalHost(cfg.PublicBackendHost) {
		backendURL = "https://" + cfg.PublicBackendHost
	}

	return func(w http.ResponseWriter, r *http.Request) {
		remote := clientKey(r)
		if !limiter.allow(remote) {
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"success": false,
				"message": "rate limit exceeded, try again shortly",
			})
			return
		}

		var req initiateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid request body"})
			return
		}

		if missing := firstMissingField(req); missing != "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   "Missing required field: " + missing,
			})
			return
		}

		record := true
		if req.Record != nil {
			record = *req.Record
		}
		statusCallbackURL := req.StatusCallbackURL
		if statusCallbackURL == "" {
			statusCallbackURL = backendURL + "/webhook"
		}

		logger := observability.GetLogger()
		logger.Info().Str("from", req.FromNumber).Str("to", req.ToNumber).Msg("initiating call")

		callID := ""
		status := "initiated"
		providerFailed := false

		resp, err := telephony.CreateCall(r.Context(), CallParams{
			FromNumber:        req.FromNumber,
			ToNumber:          req.ToNumber,
			FlowURL:           req.FlowURL,
			StatusCallbackURL: statusCallbackURL,
			Record:            record,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("telephony provider call creation failed, falling back to local record")
			callID = fmt.Sprintf("call_%d", time.Now().UnixNano())
			providerFailed = true
		} else {
			callID = resp.CallID
			status = resp.Status
		}

		rec := &CallRecord{
			CallID:            callID,
			FromNumber:        req.FromNumber,
			ToNumber:          req.ToNumber,
			FlowURL:           req.FlowURL,
			StatusCallbackURL: statusCallbackURL,
			Record:            record,
			Status:            status,
			ProviderFailed:    providerFailed,
			CreatedAt:         time.Now(),
			UpdatedAt:         time.Now(),
		}
		store.Create(rec)

		writeJSON(w, http.StatusOK, initiateResponse{
			Success: true,
			Data: initiateResponseData{
				CallID:     callID,
				Status:     status,
				Message:    "call configured for WebSocket streaming conversation",
				FromNumber: rec.FromNumber,
				ToNumber:   rec.ToNumber,
				FlowURL:    rec.FlowURL,
				Record:     rec.Record,
				Timestamp:  rec.CreatedAt,
			},
			Message: "call initiated successfully",
		})
	}
}

// firstMissingField returns the name of the first required field that is
// empty, in request-order, or "" if all are present. Matches the literal
// per-field "Missing required field: <name>" contract (SPEC_FULL §4.8/§6.1,
// scenario S6) instead of a single combined validation message.
func firstMissingField(req initiateRequest) string {
	switch {
	case req.FromNumber == "":
		return "from_number"
	case req.ToNumber == "":
		return "to_number"
	case req.FlowURL == "":
		return "flow_url"
	default:
		return ""
	}
}

func isLocalHost(host string) bool {
	return len(host) >= len("localhost") && host[:len("localhost")] == "localhost"
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
