package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// BadAudioError is returned when an inbound audio chunk cannot be decoded or
// aligned. Callers drop the chunk and continue rather than tearing down the
// session.
type BadAudioError struct {
	Reason string
}

func (e *BadAudioError) Error() string {
	return fmt.Sprintf("bad audio: %s", e.Reason)
}

const (
	// SampleWidth is the byte width of one PCM sample (16-bit signed).
	SampleWidth = 2
)

// DecodeBase64 decodes a base64 string into raw PCM bytes.
func DecodeBase64(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &BadAudioError{Reason: "invalid base64: " + err.Error()}
	}
	return b, nil
}

// EncodeBase64 encodes raw PCM bytes as a base64 string.
func EncodeBase64(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// Concat concatenates PCM chunks in order. Total and associative.
func Concat(chunks [][]byte) []byte {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]byte, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

// Align zero-pads the tail of pcm so its length is a multiple of width.
// width is typically sampleWidth*channels.
func Align(pcm []byte, width int) []byte {
	if width <= 0 {
		return pcm
	}
	rem := len(pcm) % width
	if rem == 0 {
		return pcm
	}
	pad := width - rem
	out := make([]byte, len(pcm)+pad)
	copy(out, pcm)
	return out
}

// PCMStatsResult holds RMS/peak/duration statistics for a PCM buffer.
type PCMStatsResult struct {
	RMS        float64
	Peak       int16
	DurationMs float64
}

// PCMStats computes RMS, peak amplitude and duration for a PCM buffer at the
// given sample rate. duration_ms = (len / sample_width) / sample_rate * 1000.
func PCMStats(pcm []byte, sampleRate int) PCMStatsResult {
	samples := BytesToSamples(pcm)
	rms := CalculateRMS(samples)

	var peak int16
	for _, s := range samples {
		abs := s
		if abs < 0 {
			abs = -abs
		}
		if abs > peak {
			peak = abs
		}
	}

	var durationMs float64
	if sampleRate > 0 {
		durationMs = float64(len(pcm)/SampleWidth) / float64(sampleRate) * 1000.0
	}

	return PCMStatsResult{RMS: rms, Peak: peak, DurationMs: durationMs}
}

// wavHeader fields per the RIFF/WAVE container: one "fmt " chunk (PCM, code 1)
// and one "data" chunk.
const (
	wavHeaderSize = 44
	pcmFormatCode = 1
)

// PCMToWAV wraps raw PCM in a minimal RIFF/WAVE container.
func PCMToWAV(pcm []byte, sampleRate, channels, sampleWidth int) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(wavHeaderSize + len(pcm))

	byteRate := sampleRate * channels * sampleWidth
	blockAlign := channels * sampleWidth
	dataSize := uint32(len(pcm))

	buf.WriteString("RIFF")
	binary.Write(buf, binary.LittleEndian, uint32(36+len(pcm)))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(buf, binary.LittleEndian, uint32(16)) // fmt chunk size
	binary.Write(buf, binary.LittleEndian, uint16(pcmFormatCode))
	binary.Write(buf, binary.LittleEndian, uint16(channels))
	binary.Write(buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(buf, binary.LittleEndian, uint16(sampleWidth*8))

	buf.WriteString("data")
	binary.Write(buf, binary.LittleEndian, dataSize)
	buf.Write(pcm)

	return buf.Bytes()
}

// WAVToPCM extracts the PCM payload of the first "data" chunk from a
// RIFF/WAVE container, losslessly, assuming the PCM format produced by
// PCMToWAV (or any compatible encoder).
func WAVToPCM(wav []byte) ([]byte, error) {
	if len(wav) < 12 || string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		return nil, &BadAudioError{Reason: "not a RIFF/WAVE container"}
	}

	pos := 12
	for pos+8 <= len(wav) {
		chunkID := string(wav[pos : pos+4])
		chunkSize := binary.LittleEndian.Uint32(wav[pos+4 : pos+8])
		dataStart := pos + 8
		dataEnd := dataStart + int(chunkSize)
		if dataEnd > len(wav) {
			break
		}
		if chunkID == "data" {
			return wav[dataStart:dataEnd], nil
		}
		pos = dataEnd
		if chunkSize%2 == 1 {
			pos++ // chunks are word-aligned
		}
	}

	return nil, &BadAudioError{Reason: "no data chunk found"}
}
