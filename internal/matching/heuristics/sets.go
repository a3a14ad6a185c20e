package heuristics

import (
	"sort"
	"strings"
)

// Normalize lower-cases and trims a tag, collapsing inner whitespace to '-'.
func Normalize(tag string) string {
	return strings.Join(strings.Fields(strings.ToLower(tag)), "-")
}

func normalizedSet(items []string) map[string]struct{} {
	out := make(map[string]struct{}, len(items))
	for _, it := range items {
		if n := Normalize(it); n != "" {
			out[n] = struct{}{}
		}
	}
	return out
}

// Jaccard returns |a∩b| / |a∪b| over normalized tags, and ok=false when both
// sets are empty so callers can apply their own neutral value.
func Jaccard(a, b []string) (ratio float64, ok bool) {
	sa, sb := normalizedSet(a), normalizedSet(b)
	return jaccardSets(sa, sb)
}

func jaccardSets(sa, sb map[string]struct{}) (float64, bool) {
	if len(sa) == 0 && len(sb) == 0 {
		return 0, false
	}
	inter := 0
	for k := range sa {
		if _, ok := sb[k]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union), true
}

// Shared returns the normalized tags present in both lists, sorted.
func Shared(a, b []string) []string {
	sa, sb := normalizedSet(a), normalizedSet(b)
	var out []string
	for k := range sa {
		if _, ok := sb[k]; ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// ActiveRatio is the share of active tags among tags that are active or quiet.
func ActiveRatio(interests []string) (float64, bool) {
	return categoryRatio(interests, activeInterests, quietInterests)
}

// SocialRatio is the share of social tags among tags that are social or solo.
func SocialRatio(interests []string) (float64, bool) {
	return categoryRatio(interests, socialInterests, soloInterests)
}

func categoryRatio(interests []string, left, right map[string]struct{}) (float64, bool) {
	var l, r int
	for tag := range normalizedSet(interests) {
		if _, ok := left[tag]; ok {
			l++
		}
		if _, ok := right[tag]; ok {
			r++
		}
	}
	if l+r == 0 {
		return 0, false
	}
	return float64(l) / float64(l+r), true
}

// ActivismTagCount counts interest tags that signal activism.
func ActivismTagCount(interests []string) int {
	n := 0
	for tag := range normalizedSet(interests) {
		if _, ok := activismTags[tag]; ok {
			n++
		}
	}
	return n
}
