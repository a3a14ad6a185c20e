package cache

import (
	"fmt"
	"strings"
)

// Keys builds cache keys. Every user id is delimited by ':' on both sides so
// a single glob can find all keys that mention a user.
type Keys struct {
	prefix string
}

func NewKeys(prefix string) Keys {
	if prefix == "" {
		prefix = "compat"
	}
	return Keys{prefix: prefix}
}

// Score is keyed by the ordered pair so (a,b) and (b,a) share an entry.
func (k Keys) Score(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%s:score:%s:%s:v1", k.prefix, a, b)
}

func (k Keys) Matches(userID string, limit, minScore int) string {
	return fmt.Sprintf("%s:matches:%s:l%d:s%d", k.prefix, userID, limit, minScore)
}

func (k Keys) Daily(userID string) string {
	return fmt.Sprintf("%s:daily:%s:v1", k.prefix, userID)
}

// UserPattern matches every key that contains userID.
func (k Keys) UserPattern(userID string) string {
	return fmt.Sprintf("%s:*:%s:*", k.prefix, escapeGlob(userID))
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string {
	return globEscaper.Replace(s)
}
