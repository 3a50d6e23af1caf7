// Package api implements the HTTP surface around the Call Session: the
// Flow Endpoint the telephony provider calls on answer, the Call Initiation
// Facade, and the status webhook/history store. Grounded on
// original_source/backend/fastapi_app.py's route set, reworked onto
// net/http handlers in the reference codebase's idiom.
package api

import (
	"sort"
	"sync"
	"time"
)

// CallRecord is one initiated call, created by the Call Initiation Facade
// and mutated only by the status webhook handler thereafter.
type CallRecord struct {
	SequenceID        int64
	CallID            string
	FromNumber        string
	ToNumber          string
	FlowURL           string
	StatusCallbackURL string
	Record            bool
	Status            string
	WebhookData       map[string]any
	ProviderResponse  map[string]any
	ProviderFailed    bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Store is the in-process call history: list-all, get-by-id, upsert. The
// default implementation is an ordered in-memory map; a durable store can
// implement the same interface.
type Store interface {
	Create(rec *CallRecord)
	Get(callID string) (*CallRecord, bool)
	Upsert(callID string, mutate func(rec *CallRecord))
	List() []*CallRecord
}

// memoryStore is the default Store: an ordered map guarded by one mutex,
// newest-first on List (matching fastapi_app.py's `call_history.insert(0, ...)`).
type memoryStore struct {
	mu      sync.Mutex
	byID    map[string]*CallRecord
	order   []string
	nextSeq int64
}

// NewMemoryStore creates an empty in-process call history.
func NewMemoryStore() Store {
	return &memoryStore{byID: make(map[string]*CallRecord)}
}

func (s *memoryStore) Create(rec *CallRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	rec.SequenceID = s.nextSeq
	s.byID[rec.CallID] = rec
	s.order = append([]string{rec.CallID}, s.order...)
}

func (s *memoryStore) Get(callID string) (*CallRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[callID]
	return rec, ok
}

func (s *memoryStore) Upsert(callID string, mutate func(rec *CallRecord)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.byID[callID]
	if !ok {
		rec = &CallRecord{CallID: callID, CreatedAt: time.Now()}
		s.nextSeq++
		rec.SequenceID = s.nextSeq
		s.byID[callID] = rec
		s.order = append([]string{callID}, s.order...)
	}
	mutate(rec)
	rec.UpdatedAt = time.Now()
}

func (s *memoryStore) List() []*CallRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*CallRecord, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SequenceID > out[j].SequenceID })
	return out
}
