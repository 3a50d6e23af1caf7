// Package session implements the Call Session: the per-connection state
// machine that owns one media WebSocket, accumulates inbound audio,
// drives the STT→LLM→TTS turn pipeline, manages the silence watchdog, and
// tears itself down cleanly. Grounded on the reference codebase's
// goroutine/channel CallSession, generalized from Twilio-specific framing
// to the provider-neutral frame protocol of SPEC §4.5.3/§4.5.4.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/adhryush/voice-gateway/internal/apperrors"
	"github.com/adhryush/voice-gateway/internal/audio"
	"github.com/adhryush/voice-gateway/internal/config"
	"github.com/adhryush/voice-gateway/internal/language"
	"github.com/adhryush/voice-gateway/internal/observability"
	"github.com/adhryush/voice-gateway/internal/providers/llm"
	"github.com/adhryush/voice-gateway/internal/providers/stt"
	"github.com/rs/zerolog"
)

// styleHint is passed to the LLM adapter on every turn; a voice call wants
// short, spoken-register replies, never markup.
const styleHint = "Keep replies to 1-2 sentences. This is a live voice call, not a chat; respond in plain spoken language with no markup."

type sttClient interface {
	Transcribe(ctx context.Context, pcm []byte, sourceLang string) (stt.Result, error)
}

type llmClient interface {
	Reply(ctx context.Context, history []llm.Turn, currentInput, languageHint, styleHint string) string
}

type ttsClient interface {
	Synthesize(ctx context.Context, text, lang, speaker string) ([]byte, error)
}

// Session is one live call's state machine.
type Session struct {
	ID string // connection_id, assigned by the Media Gateway

	cfg    *config.Config
	stt    sttClient
	llm    llmClient
	tts    ttsClient
	sender Sender

	vadConfig *audio.VADConfig

	logger  zerolog.Logger
	metrics *observability.Metrics

	st *state

	ctx    context.Context
	cancel context.CancelFunc

	resetWatchdog chan struct{}

	callID   string
	streamID string
}

// New creates a Call Session in the Connected phase. The caller (Media
// Gateway) is responsible for registering it and for calling Start once the
// underlying socket is ready, and HandleFrame/HandleFatal as the socket
// produces events.
func New(id string, cfg *config.Config, sttClient sttClient, llmClient llmClient, ttsClient ttsClient, sender Sender) *Session {
	correlationID := observability.NewCorrelationID()
	logger := observability.WithCorrelationID(correlationID).With().Str("connection_id", id).Logger()

	return &Session{
		ID:     id,
		cfg:    cfg,
		stt:    sttClient,
		llm:    llmClient,
		tts:    ttsClient,
		sender: sender,
		vadConfig: &audio.VADConfig{
			EnergyThreshold: cfg.VADEnergyThreshold,
			SilenceFrames:   cfg.VADSilenceFrames,
			FrameSize:       160, // 20ms at 8kHz
		},
		logger:        logger,
		metrics:       observability.NewCallMetrics(correlationID),
		st:            newState(cfg.DefaultLanguage),
		resetWatchdog: make(chan struct{}, 1),
	}
}

// Start launches the silence watchdog goroutine. ctx's cancellation tears
// the session down without a farewell (fatal path); normal end-of-call
// cancels the same context after a graceful Ending phase.
func (s *Session) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.metrics.RecordCallStart()
	go s.watchdogLoop()
}

// Status reports the session's current lifecycle status and language, for
// the admin introspection surface.
func (s *Session) Status() (Status, string, time.Time) {
	return s.st.snapshot()
}

// CallID returns the provider call id once the start frame has arrived.
func (s *Session) CallID() string { return s.callID }

// HandleFrame parses and dispatches one inbound WebSocket text message.
func (s *Session) HandleFrame(raw []byte) error {
	var frame InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.logger.Warn().Err(err).Msg("malformed inbound frame")
		return &apperrors.ProtocolError{Reason: "invalid JSON: " + err.Error()}
	}

	switch frame.Type {
	case frameTypeStart:
		s.handleStart(&frame)
	case frameTypeAudio:
		s.handleAudio(&frame)
	default:
		s.logger.Warn().Str("type", frame.Type).Msg("unknown inbound frame type, ignoring")
	}
	return nil
}

// HandleFatal tears the session down immediately with no farewell, per the
// unexpected-socket-error transition.
func (s *Session) HandleFatal(cause error) {
	s.logger.Warn().Err(cause).Msg("session ending fatally")
	s.st.setPhase(phaseEnded)
	s.metrics.RecordCallEnd()
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Session) handleStart(frame *InboundFrame) {
	s.callID = frame.CallID
	s.streamID = frame.StreamID
	s.logger = s.logger.With().Str("call_id", s.callID).Logger()
	s.logger.Info().Str("stream_id", s.streamID).Msg("call started")

	s.st.setPhase(phaseGreeting)
	s.sendGreeting()
	s.st.setWaitingForUser(true)
	s.st.markAIResponded(time.Now())
	s.st.setPhase(phaseListening)
}

func (s *Session) sendGreeting() {
	lang := s.st.language()
	text := language.GreetingFor(lang)
	s.synthesizeAndPush(text, lang, true)
	s.st.mu.Lock()
	s.st.greetingSent = true
	s.st.mu.Unlock()
}

func (s *Session) handleAudio(frame *InboundFrame) {
	if frame.Data == nil || frame.Data.AudioB64 == "" {
		return
	}
	pcm, err := audio.DecodeBase64(frame.Data.AudioB64)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to decode inbound audio")
		return
	}

	stats := audio.PCMStats(pcm, 8000)
	s.st.appendAudio(audioChunk{pcm: pcm, arrivalTs: time.Now(), durationMs: stats.DurationMs})
	s.metrics.RecordAudioBytes("in", int64(len(pcm)))

	if s.st.bufferedDurationMs() >= float64(s.cfg.MinAccumulationMsBeforeSTT) && s.st.isWaitingForUser() {
		s.processTurn()
	}
}

// processTurn runs one Accumulating→Processing cycle synchronously, per the
// concurrency discipline of §4.5.6: the pipeline is invoked directly from
// the frame-handling call path, serialized against the watchdog's
// force-drain path by tryBeginProcessing's atomic check-and-set.
func (s *Session) processTurn() {
	if !s.st.tryBeginProcessing() {
		return
	}
	defer s.st.endProcessing()

	s.st.setPhase(phaseProcessing)
	s.metrics.RecordTurnStart()
	defer s.metrics.RecordTurnEnd()

	now := time.Now()
	chunks := s.st.snapshotAndClearAudio(now)
	if len(chunks) == 0 {
		s.returnToListening()
		return
	}

	raw := make([][]byte, len(chunks))
	for i, c := range chunks {
		raw[i] = c.pcm
	}
	pcm := audio.Concat(raw)

	if !audio.HasSpeech(pcm, 8000, s.vadConfig) {
		s.returnToListening()
		return
	}
	pcm = audio.FilterSpeech(pcm, 8000, s.vadConfig)

	lang := s.st.language()
	s.metrics.RecordSTTStart()
	result, err := s.stt.Transcribe(s.ctx, pcm, lang)
	s.metrics.RecordSTTEnd(err == nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("stt transcription failed")
		s.metrics.RecordError("stt_error", "stt")
		s.returnToListening()
		return
	}

	text := strings.TrimSpace(result.Text)
	if !language.IsMeaningfulSpeech(text) {
		s.returnToListening()
		return
	}
	s.st.markUserSpoke(now)

	if switchLang, ok := s.resolveLanguageSwitch(text); ok {
		s.applyLanguageSwitch(switchLang)
		s.resetWatchdogTimer()
		s.returnToListening()
		return
	}

	history := s.st.historySnapshot()
	s.st.appendHistory(llm.Turn{Role: "user", Content: text}, s.cfg.MaxConversationHistory)

	s.metrics.RecordLLMStart()
	reply := s.llm.Reply(s.ctx, history, text, lang, styleHint)
	s.metrics.RecordLLMEnd(true) // llm.Client.Reply never surfaces an error; always a usable string

	s.st.appendHistory(llm.Turn{Role: "assistant", Content: reply}, s.cfg.MaxConversationHistory)

	s.synthesizeAndPush(reply, lang, true)
	s.st.markAIResponded(time.Now())
	s.resetWatchdogTimer()
	s.returnToListening()
}

// resolveLanguageSwitch applies the explicit-command path first (§4.4
// detect_switch_request); only when no explicit command is present does an
// implicit script-detected language that differs from current_language
// count as "a new language applies" — this avoids every turn silently
// re-triggering a switch off of a single misclassified word (decision
// recorded in DESIGN.md).
func (s *Session) resolveLanguageSwitch(text string) (string, bool) {
	if lang, ok := language.DetectSwitchRequest(text); ok {
		return lang, true
	}
	if detected := language.DetectLanguageFromText(text); detected != "" && detected != s.st.language() {
		return detected, true
	}
	return "", false
}

func (s *Session) applyLanguageSwitch(lang string) {
	s.st.setLanguage(lang)
	s.metrics.RecordLanguageSwitch()
	s.logger.Info().Str("language", lang).Msg("language switched")
	s.synthesizeAndPush(language.SwitchConfirmationFor(lang), lang, true)
	s.st.markAIResponded(time.Now())
}

func (s *Session) returnToListening() {
	s.st.setWaitingForUser(true)
	s.st.setPhase(phaseListening)
}

// synthesizeAndPush runs TTS on text and streams the resulting PCM out in
// fixed-size chunks. Failures are logged and swallowed: a session with no
// audio for a turn still returns to Listening rather than tearing down.
func (s *Session) synthesizeAndPush(text, lang string, isNewTurn bool) {
	speaker := language.SpeakerFor(lang)
	s.metrics.RecordTTSStart()
	pcm, err := s.tts.Synthesize(s.ctx, text, lang, speaker)
	s.metrics.RecordTTSEnd(err == nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("tts synthesis failed, skipping outbound audio for this turn")
		s.metrics.RecordError("tts_error", "tts")
		return
	}
	s.pushAudio(pcm, isNewTurn)
}

func (s *Session) pushAudio(pcm []byte, isNewTurn bool) {
	if isNewTurn && s.st.getSpeaking() {
		if err := s.sender.Send(clearFrame()); err != nil {
			s.logger.Warn().Err(err).Msg("failed to send clear frame")
		}
	}
	s.st.setSpeaking(true)
	defer s.st.setSpeaking(false)

	chunkBytes := s.cfg.OutboundChunkSize * audio.SampleWidth
	if chunkBytes <= 0 {
		chunkBytes = len(pcm)
	}
	for i := 0; i < len(pcm); i += chunkBytes {
		end := i + chunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		b64 := audio.EncodeBase64(pcm[i:end])
		id := s.st.nextChunkID()
		if err := s.sender.Send(audioFrame(b64, id)); err != nil {
			s.logger.Warn().Err(err).Msg("failed to send audio frame")
			return
		}
		s.metrics.RecordAudioBytes("out", int64(end-i))
	}
}

func (s *Session) resetWatchdogTimer() {
	select {
	case s.resetWatchdog <- struct{}{}:
	default:
	}
}

// watchdogLoop implements the silence watchdog and the anti-starvation
// force-drain rule of §4.5.5.
func (s *Session) watchdogLoop() {
	interval := time.Duration(s.cfg.SilenceWarningIntervalSecs) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.resetWatchdog:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(interval)
		case <-timer.C:
			s.onWatchdogTick()
			timer.Reset(interval)
		}
	}
}

func (s *Session) onWatchdogTick() {
	if s.st.currentPhase() == phaseEnded || s.st.currentPhase() == phaseEnding {
		return
	}

	forceDrainAfter := 2 * time.Duration(s.cfg.MinAccumulationMsBeforeSTT) * time.Millisecond
	if s.st.bufferNonEmpty() && time.Since(s.st.lastDrain()) >= forceDrainAfter {
		s.logger.Info().Msg("force-draining stale audio buffer (anti-starvation)")
		s.processTurn()
	}

	if s.st.currentPhase() == phaseProcessing {
		return
	}

	warnings := s.st.incrementSilenceWarnings()
	if warnings <= s.cfg.MaxSilenceWarnings {
		lang := s.st.language()
		s.metrics.RecordSilenceWarning()
		s.synthesizeAndPush(language.SilencePromptFor(lang, warnings), lang, true)
		return
	}

	s.metrics.RecordSilenceTimeout()
	s.endWithFarewell("Call ended due to inactivity")
}

// endWithFarewell implements the Ending→Ended transition: send a farewell,
// wait the shutdown grace period, close the socket with code 1000.
func (s *Session) endWithFarewell(reason string) {
	s.st.setPhase(phaseEnding)
	lang := s.st.language()
	s.synthesizeAndPush(language.FarewellFor(lang), lang, true)

	grace := time.Duration(s.cfg.ShutdownGraceSeconds) * time.Second
	if grace > 0 {
		time.Sleep(grace)
	}

	if err := s.sender.Close(1000, reason); err != nil {
		s.logger.Warn().Err(err).Msg("error closing session socket")
	}
	s.st.setPhase(phaseEnded)
	s.metrics.RecordCallEnd()
	if s.cancel != nil {
		s.cancel()
	}
}

// Disconnect drives the same Ending transition as the silence watchdog,
// used by the admin RPC's ForceDisconnect.
func (s *Session) Disconnect(reason string) {
	if reason == "" {
		reason = "disconnected by operator"
	}
	s.endWithFarewell(reason)
}

// String implements fmt.Stringer for log lines and error wrapping.
func (s *Session) String() string {
	return fmt.Sprintf("session(%s, call=%s)", s.ID, s.callID)
}
