package hostlib

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

func stringFunctions() map[string]any {
	return map[string]any{
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"trim":     trim,
		"length":   utf8.RuneCountInString,
		"contains": strings.Contains,
		"split":    split,
		"join":     join,
		"indexOf":  indexOf,
		"replace":  strings.ReplaceAll,
	}
}

func trim(s string) string {
	return strings.TrimFunc(s, unicode.IsSpace)
}

// split on an empty separator yields one element per rune.
func split(s, sep string) []string {
	return strings.Split(s, sep)
}

func join(parts []string, sep string) string {
	return strings.Join(parts, sep)
}

// indexOf counts in runes, and is -1 when needle is absent.
func indexOf(haystack, needle string) int {
	i := strings.Index(haystack, needle)
	if i < 0 {
		return -1
	}
	return utf8.RuneCountInString(haystack[:i])
}
