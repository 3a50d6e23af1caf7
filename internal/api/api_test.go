package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/providers/llm"
)

func testConfig() *config.Config {
	return &config.Config{
		PublicBackendHost:          "localhost:8080",
		TelephonyBaseURL:           "https://telephony.example",
		TelephonyAPIKey:            "test-key",
		OutboundChunkSize:          500,
		InitiateRateLimitPerSecond: 5.0,
	}
}

func TestFlowHandler_ReturnsStreamDescriptor(t *testing.T) {
	handler := FlowHandler(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/flow", bytes.NewReader([]byte(`{"call_id":"c1","account_id":"a1","from_number":"+1","to_number":"+2"}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp flowResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Action != "stream" {
		t.Errorf("expected action 'stream', got %q", resp.Action)
	}
	if resp.WSURL != "ws://localhost:8080/media-stream" {
		t.Errorf("expected ws scheme for localhost host, got %q", resp.WSURL)
	}
	if resp.ChunkSize != 500 {
		t.Errorf("expected chunk size 500, got %d", resp.ChunkSize)
	}
	if !resp.Record {
		t.Error("expected record to be true")
	}
}

func TestFlowHandler_UsesWSSForNonLocalhost(t *testing.T) {
	cfg := testConfig()
	cfg.PublicBackendHost = "gateway.example.com"
	handler := FlowHandler(cfg)

	req := httptest.NewRequest(http.MethodPost, "/flow", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	var resp flowResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.WSURL != "wss://gateway.example.com/media-stream" {
		t.Errorf("expected wss scheme, got %q", resp.WSURL)
	}
}

func TestFlowHandler_MalformedBodyStillReturns200(t *testing.T) {
	handler := FlowHandler(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/flow", bytes.NewReader([]byte("not json")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 even for a malformed body, got %d", rec.Code)
	}
}

func TestFlowHandler_FormEncodedBody(t *testing.T) {
	handler := FlowHandler(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/flow", bytes.NewReader([]byte("call_id=c1&from_number=%2B1")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for a form-encoded body, got %d", rec.Code)
	}
}

func TestInitiateHandler_Success(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"call_id": "call_123", "status": "initiated"})
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.TelephonyBaseURL = provider.URL
	store := NewMemoryStore()
	handler := InitiateHandler(cfg, NewTelephonyClient(cfg), store)

	body, _ := json.Marshal(initiateRequest{FromNumber: "+1", ToNumber: "+2", FlowURL: "https://example.com/flow"})
	req := httptest.NewRequest(http.MethodPost, "/api/calls/initiate", bytes.NewReader(body))
	req.RemoteAddr = "10.0.0.1:5555"
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp initiateResponse
	json.NewDecoder(rec.Body).Decode(&resp)
	if resp.Data.CallID != "call_123" {
		t.Errorf("expected call_123, got %q", resp.Data.CallID)
	}
	if resp.Data.FromNumber != "+1" || resp.Data.ToNumber != "+2" || resp.Data.FlowURL != "https://example.com/flow" {
		t.Errorf("expected request fields echoed in response data, got %+v", resp.Data)
	}
	if !resp.Data.Record {
		t.Error("expected record to default true")
	}
	if resp.Data.Timestamp.IsZero() {
		t.Error("expected a non-zero timestamp in response data")
	}

	if _, ok := store.Get("call_123"); !ok {
		t.Error("expected call record to be stored")
	}
}

func TestInitiateHandler_ProviderFailureFallsBackToLocalRecord(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.TelephonyBaseURL = provider.URL
	store := NewMemoryStore()
	handler := InitiateHandler(cfg, NewTelephonyClient(cfg), store)

	body, _ := json.Marshal(initiateRequest{FromNumber: "+1", ToNumber: "+2", FlowURL: "https://example.com/flow"})
	req := httptest.NewRequest(http.MethodPost, "/api/calls/initiate", bytes.NewReader(body))
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 even on provider failure, got %d", rec.Code)
	}

	records := store.List()
	if len(records) != 1 {
		t.Fatalf("expected 1 stored record, got %d", len(records))
	}
	if !records[0].ProviderFailed {
		t.Error("expected ProviderFailed to be true")
	}
	if records[0].Status != "initiated" {
		t.Errorf("expected fallback status 'initiated', got %q", records[0].Status)
	}
}

func TestInitiateHandler_MissingFieldsRejected(t *testing.T) {
	cfg := testConfig()
	store := NewMemoryStore()
	handler := InitiateHandler(cfg, NewTelephonyClient(cfg), store)

	body, _ := json.Marshal(initiateRequest{FromNumber: "+1"})
	req := httptest.NewRequest(http.MethodPost, "/api/calls/initiate", bytes.NewReader(body))
	req.RemoteAddr = "10.0.0.3:5555"
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing fields, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["success"] != false {
		t.Errorf("expected success=false, got %v", resp["success"])
	}
	if _, ok := resp["message"]; ok {
		t.Errorf("expected no 'message' key on validation failure, got %v", resp["message"])
	}
	if resp["error"] != "Missing required field: to_number" {
		t.Errorf("expected error naming first missing field, got %v", resp["error"])
	}
}

func TestInitiateHandler_RateLimited(t *testing.T) {
	provider := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"call_id": "call_1", "status": "initiated"})
	}))
	defer provider.Close()

	cfg := testConfig()
	cfg.TelephonyBaseURL = provider.URL
	cfg.InitiateRateLimitPerSecond = 1.0
	store := NewMemoryStore()
	handler := InitiateHandler(cfg, NewTelephonyClient(cfg), store)

	body, _ := json.Marshal(initiateRequest{FromNumber: "+1", ToNumber: "+2", FlowURL: "https://example.com/flow"})

	req1 := httptest.NewRequest(http.MethodPost, "/api/calls/initiate", bytes.NewReader(body))
	req1.RemoteAddr = "10.0.0.9:5555"
	rec1 := httptest.NewRecorder()
	handler(rec1, req1)
	if rec1.Code != http.StatusOK {
		t.Fatalf("expected first request to succeed, got %d", rec1.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/calls/initiate", bytes.NewReader(body))
	req2.RemoteAddr = "10.0.0.9:5555"
	rec2 := httptest.NewRecorder()
	handler(rec2, req2)
	if rec2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected second immediate request from the same address to be rate limited, got %d", rec2.Code)
	}
}

func TestWebhookHandler_UpdatesExistingRecord(t *testing.T) {
	store := NewMemoryStore()
	store.Create(&CallRecord{CallID: "call_abc", Status: "initiated"})
	handler := WebhookHandler(store)

	body, _ := json.Marshal(map[string]any{"call_id": "call_abc", "status": "completed"})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	updated, ok := store.Get("call_abc")
	if !ok {
		t.Fatal("expected record to still exist")
	}
	if updated.Status != "completed" {
		t.Errorf("expected status 'completed', got %q", updated.Status)
	}
}

func TestWebhookHandler_CallSidAlias(t *testing.T) {
	store := NewMemoryStore()
	handler := WebhookHandler(store)

	body, _ := json.Marshal(map[string]any{"CallSid": "call_xyz", "status": "ringing"})
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if _, ok := store.Get("call_xyz"); !ok {
		t.Fatal("expected webhook to create a record keyed by the CallSid alias")
	}
}

func TestWebhookHandler_MalformedBodyStillReturns200(t *testing.T) {
	store := NewMemoryStore()
	handler := WebhookHandler(store)

	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 even for a malformed body, got %d", rec.Code)
	}
}

func TestHistoryHandler_NewestFirst(t *testing.T) {
	store := NewMemoryStore()
	store.Create(&CallRecord{CallID: "call_1"})
	store.Create(&CallRecord{CallID: "call_2"})
	handler := HistoryHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/calls/history", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	var resp struct {
		Data []CallRecord `json:"data"`
	}
	json.NewDecoder(rec.Body).Decode(&resp)
	if len(resp.Data) != 2 || resp.Data[0].CallID != "call_2" {
		t.Fatalf("expected call_2 first (newest), got %+v", resp.Data)
	}
}

func TestCallDetailHandler_NotFound(t *testing.T) {
	store := NewMemoryStore()
	handler := CallDetailHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/calls/does-not-exist", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCallDetailHandler_Found(t *testing.T) {
	store := NewMemoryStore()
	store.Create(&CallRecord{CallID: "call_1", Status: "initiated"})
	handler := CallDetailHandler(store)

	req := httptest.NewRequest(http.MethodGet, "/api/calls/call_1", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCallStatusHandler_ReturnsSlimShape(t *testing.T) {
	store := NewMemoryStore()
	store.Create(&CallRecord{CallID: "call_1", Status: "initiated", WebhookData: map[string]any{"event": "ringing"}})

	mux := http.NewServeMux()
	mux.HandleFunc("/api/calls/{id}/status", CallStatusHandler(store))

	req := httptest.NewRequest(http.MethodGet, "/api/calls/call_1/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data callStatusResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.CallID != "call_1" || resp.Data.Status != "initiated" {
		t.Errorf("expected slim status shape for call_1, got %+v", resp.Data)
	}
	if resp.Data.Timestamp == "" {
		t.Error("expected a non-empty timestamp")
	}
}

func TestCallStatusHandler_NotFound(t *testing.T) {
	store := NewMemoryStore()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/calls/{id}/status", CallStatusHandler(store))

	req := httptest.NewRequest(http.MethodGet, "/api/calls/does-not-exist/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAIStatusHandler_ReportsLLMAvailability(t *testing.T) {
	cfg := testConfig()
	cfg.LLMModel = "claude-haiku-4-5"
	handler := AIStatusHandler(cfg, llm.New(cfg))

	req := httptest.NewRequest(http.MethodGet, "/api/ai/status", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success {
		t.Error("expected success=true")
	}
	for _, key := range []string{"llm_available", "service", "model"} {
		if _, ok := resp.Data[key]; !ok {
			t.Errorf("expected %q in ai status response, got %+v", key, resp.Data)
		}
	}
	if resp.Data["model"] != "claude-haiku-4-5" {
		t.Errorf("expected configured model name, got %v", resp.Data["model"])
	}
}

func TestAIConversationHandler_MissingInputRejected(t *testing.T) {
	cfg := testConfig()
	handler := AIConversationHandler(llm.New(cfg))

	body, _ := json.Marshal(conversationRequest{})
	req := httptest.NewRequest(http.MethodPost, "/api/ai/conversation", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestAIConversationHandler_ReturnsReply(t *testing.T) {
	cfg := testConfig()
	handler := AIConversationHandler(llm.New(cfg))

	body, _ := json.Marshal(conversationRequest{CurrentInput: "hello"})
	req := httptest.NewRequest(http.MethodPost, "/api/ai/conversation", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Response  string `json:"response"`
			Timestamp string `json:"timestamp"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Success || resp.Data.Response == "" {
		t.Errorf("expected a non-empty fallback reply, got %+v", resp)
	}
	if resp.Data.Timestamp == "" {
		t.Error("expected a non-empty timestamp")
	}
}
