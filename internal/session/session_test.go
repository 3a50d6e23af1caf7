package session

import (
	"context"
	"encoding/json"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/adhryush/voice-gateway/internal/audio"
	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/providers/llm"
	"github.com/adhryush/voice-gateway/internal/providers/stt"
)

type fakeSender struct {
	mu     sync.Mutex
	frames []OutboundFrame
	closed bool
	code   int
	reason string
}

func (f *fakeSender) Send(frame OutboundFrame) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSender) Close(code int, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.code = code
	f.reason = reason
	return nil
}

func (f *fakeSender) audioFrameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, fr := range f.frames {
		if fr.Type == "audio" {
			n++
		}
	}
	return n
}

func (f *fakeSender) hasFrameType(t string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, fr := range f.frames {
		if fr.Type == t {
			return true
		}
	}
	return false
}

type fakeSTT struct {
	mu    sync.Mutex
	calls int
	text  string
	lang  string
	err   error
}

func (f *fakeSTT) Transcribe(ctx context.Context, pcm []byte, sourceLang string) (stt.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return stt.Result{}, f.err
	}
	return stt.Result{Text: f.text, DetectedLang: f.lang}, nil
}

func (f *fakeSTT) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeLLM struct {
	mu    sync.Mutex
	calls int
	reply string
}

func (f *fakeLLM) Reply(ctx context.Context, history []llm.Turn, currentInput, languageHint, styleHint string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.reply
}

func (f *fakeLLM) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeTTS struct {
	pcm []byte
}

func (f *fakeTTS) Synthesize(ctx context.Context, text, lang, speaker string) ([]byte, error) {
	return f.pcm, nil
}

func testConfig() *config.Config {
	return &config.Config{
		DefaultLanguage:            "hi-IN",
		VADEnergyThreshold:         300.0,
		MinAccumulationMsBeforeSTT: 100,
		SilenceWarningIntervalSecs: 3600, // effectively disabled for most tests
		MaxSilenceWarnings:         2,
		MaxConversationHistory:     20,
		ShutdownGraceSeconds:       0,
		OutboundChunkSize:          500,
	}
}

// testConfigEnglish is used by tests whose fake STT returns a Latin-script
// transcript: detect_language_from_text would otherwise read any English
// sentence as an implicit switch request away from the hi-IN default,
// which is not what these tests are exercising.
func testConfigEnglish() *config.Config {
	cfg := testConfig()
	cfg.DefaultLanguage = "en-IN"
	return cfg
}

// loudTonePCM builds a sine wave loud enough and long enough to pass both
// the VAD's has_speech gate (>=150ms, amplitude above threshold) and the
// accumulation gate in testConfig.
func loudTonePCM(durationMs int) []byte {
	sampleRate := 8000
	numSamples := sampleRate * durationMs / 1000
	samples := make([]int16, numSamples)
	for i := range samples {
		samples[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/float64(sampleRate)))
	}
	return audio.SamplesToBytes(samples)
}

func silentPCM(durationMs int) []byte {
	sampleRate := 8000
	numSamples := sampleRate * durationMs / 1000
	return make([]byte, numSamples*audio.SampleWidth)
}

func sendFrame(t *testing.T, s *Session, frame InboundFrame) {
	t.Helper()
	raw, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("failed to marshal frame: %v", err)
	}
	if err := s.HandleFrame(raw); err != nil {
		t.Fatalf("HandleFrame failed: %v", err)
	}
}

func newTestSession(sttC sttClient, llmC llmClient, ttsC ttsClient, sender *fakeSender) *Session {
	return newTestSessionWithConfig(testConfig(), sttC, llmC, ttsC, sender)
}

func newTestSessionWithConfig(cfg *config.Config, sttC sttClient, llmC llmClient, ttsC ttsClient, sender *fakeSender) *Session {
	s := New("conn-1", cfg, sttC, llmC, ttsC, sender)
	s.Start(context.Background())
	return s
}

func TestHandleStart_SendsGreeting(t *testing.T) {
	sender := &fakeSender{}
	s := newTestSession(&fakeSTT{}, &fakeLLM{}, &fakeTTS{pcm: loudTonePCM(50)}, sender)

	sendFrame(t, s, InboundFrame{Type: "start", CallID: "C1", StreamID: "S1"})

	if sender.audioFrameCount() == 0 {
		t.Fatal("expected a greeting audio frame to be sent")
	}
	status, lang, _ := s.Status()
	if status != StatusActive {
		t.Errorf("expected status active after greeting, got %v", status)
	}
	if lang != "hi-IN" {
		t.Errorf("expected default language hi-IN, got %s", lang)
	}
}

func TestHandleAudio_DrivesFullTurn(t *testing.T) {
	sender := &fakeSender{}
	sttC := &fakeSTT{text: "I would like to know about my case status please"}
	llmC := &fakeLLM{reply: "Your case is progressing normally."}
	ttsC := &fakeTTS{pcm: loudTonePCM(50)}
	s := newTestSessionWithConfig(testConfigEnglish(), sttC, llmC, ttsC, sender)

	sendFrame(t, s, InboundFrame{Type: "start", CallID: "C1", StreamID: "S1"})
	greetingFrames := sender.audioFrameCount()

	pcm := loudTonePCM(200)
	sendFrame(t, s, InboundFrame{
		Type: "audio",
		Data: &InboundData{AudioB64: audio.EncodeBase64(pcm)},
	})

	if sttC.callCount() != 1 {
		t.Fatalf("expected exactly 1 STT call, got %d", sttC.callCount())
	}
	if llmC.callCount() != 1 {
		t.Fatalf("expected exactly 1 LLM call, got %d", llmC.callCount())
	}
	if sender.audioFrameCount() <= greetingFrames {
		t.Error("expected additional audio frames pushed after the turn completes")
	}
}

func TestHandleAudio_SilentBufferSkipsSTT(t *testing.T) {
	sender := &fakeSender{}
	sttC := &fakeSTT{text: "should not be reached"}
	s := newTestSession(sttC, &fakeLLM{}, &fakeTTS{pcm: loudTonePCM(50)}, sender)

	sendFrame(t, s, InboundFrame{Type: "start", CallID: "C1", StreamID: "S1"})
	sendFrame(t, s, InboundFrame{
		Type: "audio",
		Data: &InboundData{AudioB64: audio.EncodeBase64(silentPCM(500))},
	})

	if sttC.callCount() != 0 {
		t.Errorf("expected no STT call for a silent buffer, got %d calls", sttC.callCount())
	}
}

func TestHandleAudio_NonMeaningfulTranscriptSkipsLLM(t *testing.T) {
	sender := &fakeSender{}
	sttC := &fakeSTT{text: "um"}
	llmC := &fakeLLM{reply: "should not be reached"}
	s := newTestSessionWithConfig(testConfigEnglish(), sttC, llmC, &fakeTTS{pcm: loudTonePCM(50)}, sender)

	sendFrame(t, s, InboundFrame{Type: "start", CallID: "C1", StreamID: "S1"})
	sendFrame(t, s, InboundFrame{
		Type: "audio",
		Data: &InboundData{AudioB64: audio.EncodeBase64(loudTonePCM(200))},
	})

	if sttC.callCount() != 1 {
		t.Errorf("expected STT to run once, got %d", sttC.callCount())
	}
	if llmC.callCount() != 0 {
		t.Errorf("expected no LLM call for a filler-only transcript, got %d calls", llmC.callCount())
	}
}

func TestHandleAudio_LanguageSwitchSkipsLLM(t *testing.T) {
	sender := &fakeSender{}
	sttC := &fakeSTT{text: "please speak in english"}
	llmC := &fakeLLM{reply: "should not be reached"}
	s := newTestSession(sttC, llmC, &fakeTTS{pcm: loudTonePCM(50)}, sender)

	sendFrame(t, s, InboundFrame{Type: "start", CallID: "C1", StreamID: "S1"})
	sendFrame(t, s, InboundFrame{
		Type: "audio",
		Data: &InboundData{AudioB64: audio.EncodeBase64(loudTonePCM(200))},
	})

	if llmC.callCount() != 0 {
		t.Errorf("expected no LLM call on a language-switch turn, got %d", llmC.callCount())
	}
	_, lang, _ := s.Status()
	if lang != "en-IN" {
		t.Errorf("expected language switched to en-IN, got %s", lang)
	}
}

// TestHandleAudio_LanguageSwitchResetsWatchdog builds the session directly
// rather than via Start, so the watchdog goroutine is not yet draining
// resetWatchdog: a language-switch turn must still signal it exactly the way
// a full LLM+TTS turn does, or a stale silence warning can fire on schedule
// even though the caller just spoke.
func TestHandleAudio_LanguageSwitchResetsWatchdog(t *testing.T) {
	sender := &fakeSender{}
	sttC := &fakeSTT{text: "please speak in english"}
	llmC := &fakeLLM{reply: "should not be reached"}
	s := New("conn-1", testConfig(), sttC, llmC, &fakeTTS{pcm: loudTonePCM(50)}, sender)
	s.ctx = context.Background()

	sendFrame(t, s, InboundFrame{Type: "start", CallID: "C1", StreamID: "S1"})
	sendFrame(t, s, InboundFrame{
		Type: "audio",
		Data: &InboundData{AudioB64: audio.EncodeBase64(loudTonePCM(200))},
	})

	select {
	case <-s.resetWatchdog:
	default:
		t.Error("expected the language-switch turn to reset the silence watchdog timer")
	}
}

func TestHandleFatal_EndsSessionWithoutFarewell(t *testing.T) {
	sender := &fakeSender{}
	s := newTestSession(&fakeSTT{}, &fakeLLM{}, &fakeTTS{pcm: loudTonePCM(50)}, sender)
	sendFrame(t, s, InboundFrame{Type: "start", CallID: "C1", StreamID: "S1"})

	s.HandleFatal(context.DeadlineExceeded)

	status, _, _ := s.Status()
	if status != StatusEnded {
		t.Errorf("expected status ended after fatal, got %v", status)
	}
	if sender.closed {
		t.Error("expected no Close call on the fatal path (no farewell)")
	}
}

func TestDisconnect_SendsFarewellAndCloses(t *testing.T) {
	sender := &fakeSender{}
	s := newTestSession(&fakeSTT{}, &fakeLLM{}, &fakeTTS{pcm: loudTonePCM(50)}, sender)
	sendFrame(t, s, InboundFrame{Type: "start", CallID: "C1", StreamID: "S1"})

	s.Disconnect("operator requested disconnect")

	if !sender.closed {
		t.Fatal("expected sender.Close to be called")
	}
	if sender.code != 1000 {
		t.Errorf("expected close code 1000, got %d", sender.code)
	}
	status, _, _ := s.Status()
	if status != StatusEnded {
		t.Errorf("expected status ended, got %v", status)
	}
}

func TestHandleFrame_UnknownTypeIgnored(t *testing.T) {
	sender := &fakeSender{}
	s := newTestSession(&fakeSTT{}, &fakeLLM{}, &fakeTTS{pcm: loudTonePCM(50)}, sender)

	if err := s.HandleFrame([]byte(`{"type":"mark"}`)); err != nil {
		t.Errorf("expected unknown frame types to be ignored without error, got %v", err)
	}
}

func TestHandleFrame_MalformedJSONReturnsProtocolError(t *testing.T) {
	sender := &fakeSender{}
	s := newTestSession(&fakeSTT{}, &fakeLLM{}, &fakeTTS{pcm: loudTonePCM(50)}, sender)

	err := s.HandleFrame([]byte(`{not valid json`))
	if err == nil {
		t.Fatal("expected a protocol error for malformed JSON")
	}
}

func TestWatchdog_ForcesPromptAfterSilence(t *testing.T) {
	sender := &fakeSender{}
	cfg := testConfig()
	cfg.SilenceWarningIntervalSecs = 1
	cfg.MaxSilenceWarnings = 2
	s := New("conn-2", cfg, &fakeSTT{}, &fakeLLM{}, &fakeTTS{pcm: loudTonePCM(50)}, sender)
	s.Start(context.Background())
	sendFrame(t, s, InboundFrame{Type: "start", CallID: "C2", StreamID: "S2"})
	greetingFrames := sender.audioFrameCount()

	time.Sleep(1500 * time.Millisecond)

	if sender.audioFrameCount() <= greetingFrames {
		t.Error("expected a silence-prompt audio frame after the greeting")
	}
}
