package language

import "strings"

// fillerWords are single-word utterances too short to act on, carried
// verbatim from the original call handler's filler list.
var fillerWords = map[string]bool{
	"so": true, "um": true, "uh": true, "hmm": true, "ah": true,
	"er": true, "well": true, "and": true, "the": true, "but": true, "oh": true,
}

// IsMeaningfulSpeech reports whether a transcript is worth acting on: not
// empty, not a single filler word, and not a very short single word. Mirrors
// the original call handler's heuristic almost exactly — a transcript counts
// if it has at least two words, or one word of five or more characters.
func IsMeaningfulSpeech(transcript string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(transcript))
	if cleaned == "" {
		return false
	}

	if fillerWords[cleaned] {
		return false
	}

	if len(cleaned) < 4 {
		return false
	}

	words := strings.Fields(cleaned)
	if len(words) == 1 && len(words[0]) < 5 {
		return false
	}

	return len(words) >= 2 || (len(words) == 1 && len(words[0]) >= 5)
}
