package agent

import (
	"strings"
	"unicode"
)

// Sentence collapses raw model output into a single sentence: newlines
// and runs of whitespace become single spaces, the text is cut after its
// first terminator, and a closing terminator is appended when the model
// left none.
func Sentence(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return ""
	}

	runes := []rune(text)
	for i, r := range runes {
		if !isTerminator(r) {
			continue
		}
		// A period directly before a digit is a decimal point.
		if r == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1]) {
			continue
		}
		return strings.TrimSpace(string(runes[:i+1]))
	}

	// The model left the sentence open; close it in the matching script.
	if unicode.Is(unicode.Han, runes[len(runes)-1]) {
		return text + "。"
	}
	return text + "."
}

func isTerminator(r rune) bool {
	switch r {
	case '。', '！', '？', '.', '!', '?':
		return true
	}
	return false
}
