package audio

// VADConfig holds configuration for Voice Activity Detection
type VADConfig struct {
	EnergyThreshold float64 // RMS energy threshold for speech detection
	SilenceFrames   int     // Number of consecutive silence frames to mark as end of speech
	FrameSize       int     // Number of samples per frame (typically 160 for 8kHz = 20ms)
}

// DefaultVADConfig returns a default VAD configuration
func DefaultVADConfig() *VADConfig {
	return &VADConfig{
		EnergyThreshold: 300.0, // matches VADEnergyThreshold config default
		SilenceFrames:   10,    // 200ms of silence (10 frames * 20ms)
		FrameSize:       160,   // 20ms at 8kHz (8000 * 0.02 = 160)
	}
}

// VADDetector performs Voice Activity Detection
type VADDetector struct {
	config         *VADConfig
	silenceCounter int
	isSpeaking     bool
}

// NewVADDetector creates a new VAD detector
func NewVADDetector(config *VADConfig) *VADDetector {
	if config == nil {
		config = DefaultVADConfig()
	}
	return &VADDetector{
		config:         config,
		silenceCounter: 0,
		isSpeaking:     false,
	}
}

// ProcessFrame processes an audio frame and returns whether speech is detected
// Returns: (isSpeaking, speechStarted, speechEnded)
func (v *VADDetector) ProcessFrame(samples []int16) (bool, bool, bool) {
	// Calculate RMS energy for this frame
	rms := CalculateRMS(samples)

	// Determine if this frame contains speech
	frameHasSpeech := rms > v.config.EnergyThreshold

	var speechStarted, speechEnded bool

	if frameHasSpeech {
		// Reset silence counter
		v.silenceCounter = 0

		// Check if speech just started
		if !v.isSpeaking {
			speechStarted = true
			v.isSpeaking = true
		}
	} else {
		// Increment silence counter
		v.silenceCounter++

		// Check if we've had enough silence to mark speech as ended
		if v.isSpeaking && v.silenceCounter >= v.config.SilenceFrames {
			speechEnded = true
			v.isSpeaking = false
			v.silenceCounter = 0
		}
	}

	return v.isSpeaking, speechStarted, speechEnded
}

// Reset resets the VAD detector state
func (v *VADDetector) Reset() {
	v.silenceCounter = 0
	v.isSpeaking = false
}

// IsSpeaking returns whether speech is currently detected
func (v *VADDetector) IsSpeaking() bool {
	return v.isSpeaking
}

// CalculateEnergy calculates the energy (RMS) of audio samples
// This is a helper function that can be used independently
func CalculateEnergy(samples []int16) float64 {
	return CalculateRMS(samples)
}

// DetectSilence detects if audio samples represent silence
// Uses a simple energy threshold
func DetectSilence(samples []int16, threshold float64) bool {
	return CalculateRMS(samples) < threshold
}

// meaningfulSpeechRatio and meaningfulSpeechMs are the gating thresholds a
// PCM clip must clear for HasSpeech to report true: at least 5% of frames
// classified as speech, and at least 150ms of cumulative speech duration.
const (
	meaningfulSpeechRatio = 0.05
	meaningfulSpeechMs    = 150.0
)

// FrameStats summarizes a one-shot frame-based VAD pass over a PCM buffer.
type FrameStats struct {
	SpeechFrames    int
	TotalFrames     int
	SpeechRatio     float64
	SpeechDurationMs float64
}

// Stats runs frame-based VAD over pcm at the given sample rate using cfg (nil
// selects DefaultVADConfig) and returns frame-level speech statistics. Each
// frame is cfg.FrameSize samples and is speech when its RMS is at or above
// cfg.EnergyThreshold. A buffer shorter than one frame yields zero stats;
// otherwise a trailing partial frame is evaluated as-is.
func Stats(pcm []byte, sampleRate int, cfg *VADConfig) FrameStats {
	if cfg == nil {
		cfg = DefaultVADConfig()
	}
	samples := BytesToSamples(pcm)

	var stats FrameStats
	if len(samples) < cfg.FrameSize {
		return stats
	}
	frameDurationMs := float64(cfg.FrameSize) / float64(sampleRate) * 1000.0

	for start := 0; start < len(samples); start += cfg.FrameSize {
		end := start + cfg.FrameSize
		if end > len(samples) {
			end = len(samples)
		}
		frame := samples[start:end]
		stats.TotalFrames++
		if CalculateRMS(frame) >= cfg.EnergyThreshold {
			stats.SpeechFrames++
			stats.SpeechDurationMs += frameDurationMs
		}
	}

	if stats.TotalFrames > 0 {
		stats.SpeechRatio = float64(stats.SpeechFrames) / float64(stats.TotalFrames)
	}

	return stats
}

// HasSpeech reports whether pcm contains meaningful speech: the speech-frame
// ratio and cumulative speech duration both clear their gating thresholds.
// A cfg of nil selects DefaultVADConfig.
func HasSpeech(pcm []byte, sampleRate int, cfg *VADConfig) bool {
	s := Stats(pcm, sampleRate, cfg)
	return s.SpeechRatio >= meaningfulSpeechRatio && s.SpeechDurationMs >= meaningfulSpeechMs
}

// FilterSpeech returns the subset of pcm belonging to frames classified as
// speech, dropping silent frames. Frame order is preserved. A buffer shorter
// than one frame yields an empty result. A cfg of nil selects
// DefaultVADConfig.
func FilterSpeech(pcm []byte, sampleRate int, cfg *VADConfig) []byte {
	if cfg == nil {
		cfg = DefaultVADConfig()
	}
	samples := BytesToSamples(pcm)
	if len(samples) < cfg.FrameSize {
		return []byte{}
	}

	var kept []int16
	for start := 0; start < len(samples); start += cfg.FrameSize {
		end := start + cfg.FrameSize
		if end > len(samples) {
			end = len(samples)
		}
		frame := samples[start:end]
		if CalculateRMS(frame) >= cfg.EnergyThreshold {
			kept = append(kept, frame...)
		}
	}

	return SamplesToBytes(kept)
}

