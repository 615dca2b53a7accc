package absa

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	phraseWindowWords = 3
	maxPhraseChars    = 80
	fallbackChars     = 100
	minContextChars   = 5
)

// ExtractAspectPhrase returns a short excerpt of text around the first
// occurrence of aspect: three words either side, trimmed of edge punctuation
// and capped at 80 characters. When the aspect cannot be located the first
// 100 characters of text are returned instead.
func ExtractAspectPhrase(text, aspect string) string {
	aspectLower := strings.ToLower(aspect)
	if !strings.Contains(strings.ToLower(text), aspectLower) {
		return truncateRunes(text, fallbackChars)
	}

	words := strings.Fields(text)
	aspectWords := strings.Fields(aspectLower)
	if len(aspectWords) == 0 {
		return truncateRunes(text, fallbackChars)
	}

	start := -1
	for i := 0; i+len(aspectWords) <= len(words); i++ {
		if windowMatches(words[i:i+len(aspectWords)], aspectWords) {
			start = i
			break
		}
	}
	if start < 0 {
		return truncateRunes(text, fallbackChars)
	}
	end := start + len(aspectWords)

	from := max(0, start-phraseWindowWords)
	to := min(len(words), end+phraseWindowWords)

	phrase := strings.Trim(strings.Join(words[from:to], " "), ".,!?;: ")
	if utf8.RuneCountInString(phrase) > maxPhraseChars {
		phrase = truncateRunes(phrase, maxPhraseChars) + "..."
	}
	return phrase
}

// SentimentContext picks the text a classifier should score for aspect: the
// first sentence mentioning it, or the whole text if that sentence is too
// short to carry sentiment.
func SentimentContext(text, aspect string) string {
	aspectLower := strings.ToLower(aspect)
	normalized := strings.NewReplacer("!", ".", "?", ".").Replace(text)

	context := ""
	for _, sentence := range strings.Split(normalized, ".") {
		if strings.Contains(strings.ToLower(sentence), aspectLower) {
			context = strings.TrimSpace(sentence)
			break
		}
	}

	if utf8.RuneCountInString(context) < minContextChars {
		return text
	}
	return context
}

func windowMatches(window, aspectWords []string) bool {
	for j, aw := range aspectWords {
		if !strings.Contains(stripPunctuation(strings.ToLower(window[j])), aw) {
			return false
		}
	}
	return true
}

func stripPunctuation(word string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '_' {
			return r
		}
		return -1
	}, word)
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
