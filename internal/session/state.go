package session

import (
	"sync"
	"time"

	"github.com/adhryush/voice-gateway/internal/providers/llm"
)

// Status is the coarse externally-visible lifecycle of a session, per the
// Session State data model.
type Status string

const (
	StatusConnected Status = "connected"
	StatusActive    Status = "active"
	StatusEnded     Status = "ended"
)

// phase names the turn state machine's current step. It is internal: the
// admin introspection surface sees only Status. Transitions happen inline in session.go
// rather than through a table, matching the reference codebase's
// event-driven (not table-driven) control flow.
type phase string

const (
	phaseConnected    phase = "connected"
	phaseGreeting     phase = "greeting"
	phaseListening    phase = "listening"
	phaseAccumulating phase = "accumulating"
	phaseProcessing   phase = "processing"
	phaseEnding       phase = "ending"
	phaseEnded        phase = "ended"
)

// audioChunk is one inbound frame's decoded payload, timestamped on arrival.
type audioChunk struct {
	pcm        []byte
	arrivalTs  time.Time
	durationMs float64
}

// state holds the mutable Session State fields behind a single mutex. All
// reads/writes to these fields outside of the turn-processing critical
// section go through state's methods so audio_buffer appends and
// snapshot-and-clear drains never race (§4.5.6).
type state struct {
	mu sync.Mutex

	status Status
	phase  phase

	greetingSent   bool
	waitingForUser bool
	isProcessing   bool
	callEnded      bool
	isSpeaking     bool // true while a TTS reply is still being streamed out

	lastUserSpeechAt time.Time
	lastAIResponseAt time.Time
	lastDrainAt      time.Time

	silenceWarnings int

	currentLanguage  string
	detectedLanguage string

	audioBuffer []audioChunk
	history     []llm.Turn

	outboundChunkCounter int64

	startedAt time.Time
}

func newState(defaultLanguage string) *state {
	return &state{
		status:          StatusConnected,
		phase:           phaseConnected,
		currentLanguage: defaultLanguage,
		startedAt:       time.Now(),
	}
}

func (s *state) appendAudio(chunk audioChunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.audioBuffer = append(s.audioBuffer, chunk)
}

// bufferedDurationMs returns the accumulated duration of audio_buffer
// without draining it.
func (s *state) bufferedDurationMs() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total float64
	for _, c := range s.audioBuffer {
		total += c.durationMs
	}
	return total
}

func (s *state) bufferNonEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.audioBuffer) > 0
}

// snapshotAndClearAudio atomically takes ownership of the buffered chunks
// and empties audio_buffer, recording last_drain_at.
func (s *state) snapshotAndClearAudio(now time.Time) []audioChunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	chunks := s.audioBuffer
	s.audioBuffer = nil
	s.lastDrainAt = now
	return chunks
}

func (s *state) tryBeginProcessing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isProcessing {
		return false
	}
	s.isProcessing = true
	s.waitingForUser = false
	return true
}

func (s *state) endProcessing() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isProcessing = false
}

func (s *state) isWaitingForUser() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.waitingForUser
}

func (s *state) setWaitingForUser(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waitingForUser = v
}

func (s *state) markUserSpoke(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUserSpeechAt = now
	s.silenceWarnings = 0
}

func (s *state) markAIResponded(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastAIResponseAt = now
}

func (s *state) setSpeaking(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.isSpeaking = v
}

func (s *state) getSpeaking() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isSpeaking
}

func (s *state) language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLanguage
}

func (s *state) setLanguage(lang string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentLanguage = lang
	s.detectedLanguage = lang
}

func (s *state) appendHistory(turn llm.Turn, maxHistory int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, turn)
	if maxHistory > 0 && len(s.history) > maxHistory {
		s.history = s.history[len(s.history)-maxHistory:]
	}
}

func (s *state) historySnapshot() []llm.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Turn, len(s.history))
	copy(out, s.history)
	return out
}

func (s *state) nextChunkID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outboundChunkCounter++
	return s.outboundChunkCounter
}

func (s *state) lastUserSpeech() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUserSpeechAt
}

func (s *state) lastDrain() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastDrainAt
}

func (s *state) incrementSilenceWarnings() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.silenceWarnings++
	return s.silenceWarnings
}

func (s *state) setPhase(p phase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = p
	if p == phaseEnded {
		s.status = StatusEnded
		s.callEnded = true
	} else if p != phaseConnected {
		s.status = StatusActive
	}
}

func (s *state) currentPhase() phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

func (s *state) snapshot() (Status, string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status, s.currentLanguage, s.startedAt
}
