package simpleslots

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const maxTitleBytes = 255

// NormalizeSlotName lowercases and trims a slot role name.
// An empty name means main.
func NormalizeSlotName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return MainSlot
	}
	return s
}

// NormalizeTitle converts underscores to spaces, collapses runs of
// whitespace and uppercases the first letter. It returns false when the
// title is not legal.
func NormalizeTitle(s string) (string, bool) {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.Join(strings.Fields(s), " ")
	if s == "" || len(s) > maxTitleBytes || !utf8.ValidString(s) {
		return "", false
	}
	if strings.ContainsAny(s, "#<>[]|{}") || strings.HasPrefix(s, ":") {
		return "", false
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:], true
}
