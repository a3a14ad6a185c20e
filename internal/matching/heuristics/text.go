package heuristics

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

func normalizeText(text string) string {
	var b strings.Builder
	b.Grow(len(text) + 2)
	b.WriteByte(' ')
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	b.WriteByte(' ')
	return strings.Join(strings.Fields(b.String()), " ")
}

// MatchedKeywords returns the keywords found in text as whole words or phrases.
func MatchedKeywords(text string, keywords []string) map[string]struct{} {
	out := make(map[string]struct{})
	norm := " " + normalizeText(text) + " "
	if strings.TrimSpace(norm) == "" {
		return out
	}
	for _, kw := range keywords {
		if strings.Contains(norm, " "+kw+" ") {
			out[kw] = struct{}{}
		}
	}
	return out
}

// KeywordHits counts how many keywords from the list appear in text.
func KeywordHits(text string, keywords []string) int {
	return len(MatchedKeywords(text, keywords))
}

// KeywordOverlap is the Jaccard ratio of the keywords each text mentions.
// ok is false when neither text mentions any keyword.
func KeywordOverlap(a, b string, keywords []string) (float64, bool) {
	return jaccardSets(MatchedKeywords(a, keywords), MatchedKeywords(b, keywords))
}

// KeywordDensity returns hits normalized by cap into [0,1].
func KeywordDensity(text string, keywords []string, cap int) float64 {
	if cap <= 0 {
		return 0
	}
	return math.Min(1, float64(KeywordHits(text, keywords))/float64(cap))
}

// Complexity summarises how a piece of free text is written.
type Complexity struct {
	Words             int
	WordsPerSentence  float64
	AverageWordLength float64
}

// TextComplexity measures word count, words per sentence and average word length.
func TextComplexity(text string) Complexity {
	words := strings.Fields(normalizeText(text))
	if len(words) == 0 {
		return Complexity{}
	}

	sentences := 0
	for _, s := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}

	letters := 0
	for _, w := range words {
		letters += len([]rune(w))
	}

	return Complexity{
		Words:             len(words),
		WordsPerSentence:  float64(len(words)) / float64(sentences),
		AverageWordLength: float64(letters) / float64(len(words)),
	}
}

// ComplexitySimilarity compares two texts on sentence length and word length,
// returning 0-100. ok is false when either text is empty.
func ComplexitySimilarity(a, b string) (int, bool) {
	ca, cb := TextComplexity(a), TextComplexity(b)
	if ca.Words == 0 || cb.Words == 0 {
		return 0, false
	}
	// Sentence length is capped at 30 words and word length at 10 letters.
	sentenceDiff := math.Abs(math.Min(ca.WordsPerSentence, 30)-math.Min(cb.WordsPerSentence, 30)) / 30
	wordDiff := math.Abs(math.Min(ca.AverageWordLength, 10)-math.Min(cb.AverageWordLength, 10)) / 10
	return Clamp(int(math.Round(100 * (1 - (0.6*sentenceDiff + 0.4*wordDiff))))), true
}

// Clamp bounds a score into [0,100].
func Clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// Round converts a float score into a clamped integer score.
func Round(v float64) int {
	return Clamp(int(math.Round(v)))
}
