package absa

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon holds the two word sets that drive aspect validation. It is never
// mutated after construction, so a single instance can be shared freely.
type Lexicon struct {
	nonAspect map[string]struct{}
	core      map[string]struct{}
}

var defaultNonAspectWords = []string{
	// adjectives/adverbs
	"really", "very", "quite", "extremely", "pretty", "fairly", "rather",
	"actually", "definitely", "absolutely", "totally", "completely",
	"easily", "quickly", "slowly", "barely", "hardly", "nearly",
	// time/frequency
	"always", "never", "sometimes", "often", "rarely", "late", "early",
	"days", "hours", "minutes", "weeks", "months", "years", "day",
	"yesterday", "today", "tomorrow", "soon", "later",
	// vague descriptors
	"minor", "major", "several", "few", "many", "issues", "issue",
	"things", "thing", "stuff", "items", "item", "problems", "problem",
	// generic quality words
	"good", "bad", "great", "poor", "nice", "okay", "fine", "excellent",
	"better", "worse", "best", "worst", "overall", "balanced",
	"impressive", "disappointing", "decent", "terrible", "amazing",
	// verbs
	"looks", "feels", "seems", "appears", "arrives", "works", "lasts",
	"does", "doesn", "don", "isn", "aren", "wasn", "weren",
	// modals/negations
	"not", "no", "yes", "can", "could", "should", "would", "will",
	"consistent", "inconsistent", "reliable", "unreliable",
}

var defaultCoreAspectTerms = []string{
	"battery", "screen", "display", "camera", "sound", "audio", "video",
	"performance", "quality", "price", "cost", "value", "design", "build",
	"material", "durability", "delivery", "shipping", "package", "service",
	"support", "warranty", "feature", "functionality", "app", "software",
	"hardware", "interface", "fitness", "health", "tracking", "monitor",
	"sensor", "gps", "comfort", "fit", "weight", "size", "style",
	"notification", "alert", "call", "message", "connectivity", "bluetooth",
	"wifi", "charging", "charger", "cable", "adapter", "port", "usb",
	"strap", "band", "watch", "smartwatch", "amoled", "lcd", "sync",
	"syncing", "waterproof", "resistant", "heart", "rate", "steps",
}

var defaultLexicon = mustLexicon(defaultNonAspectWords, defaultCoreAspectTerms)

// DefaultLexicon returns the built-in consumer-electronics lexicon.
func DefaultLexicon() *Lexicon {
	return defaultLexicon
}

// NewLexicon builds a lexicon from the two word lists. Entries are trimmed
// and lower-cased; blank entries are ignored. The sets must not overlap.
func NewLexicon(nonAspectWords, coreAspectTerms []string) (*Lexicon, error) {
	l := &Lexicon{
		nonAspect: toSet(nonAspectWords),
		core:      toSet(coreAspectTerms),
	}
	if len(l.core) == 0 {
		return nil, fmt.Errorf("%w: no core aspect terms", ErrInvalidLexicon)
	}
	for w := range l.core {
		if _, ok := l.nonAspect[w]; ok {
			return nil, fmt.Errorf("%w: %q is both a core term and a non-aspect word", ErrInvalidLexicon, w)
		}
	}
	return l, nil
}

type lexiconFile struct {
	NonAspectWords  []string `yaml:"non_aspect_words"`
	CoreAspectTerms []string `yaml:"core_aspect_terms"`
}

// LoadLexiconFromYAML reads a lexicon override.
//
// Expected format:
//
//	non_aspect_words: [really, very, good]
//	core_aspect_terms: [battery, screen, camera]
func LoadLexiconFromYAML(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("[Lexicon] failed to read %s: %w", path, err)
	}

	var file lexiconFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("[Lexicon] failed to parse %s: %w", path, err)
	}

	return NewLexicon(file.NonAspectWords, file.CoreAspectTerms)
}

func (l *Lexicon) IsNonAspect(word string) bool {
	_, ok := l.nonAspect[strings.ToLower(word)]
	return ok
}

func (l *Lexicon) IsCoreTerm(word string) bool {
	_, ok := l.core[strings.ToLower(word)]
	return ok
}

// ContainsCoreTerm reports whether any whitespace-separated word of phrase is
// an anchor term.
func (l *Lexicon) ContainsCoreTerm(phrase string) bool {
	for _, w := range strings.Fields(strings.ToLower(phrase)) {
		if _, ok := l.core[w]; ok {
			return true
		}
	}
	return false
}

func toSet(words []string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

func mustLexicon(nonAspectWords, coreAspectTerms []string) *Lexicon {
	l, err := NewLexicon(nonAspectWords, coreAspectTerms)
	if err != nil {
		panic(err)
	}
	return l
}
