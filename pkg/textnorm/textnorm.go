// Package textnorm folds text into the accent-insensitive, case-insensitive
// form used for stored search columns and query terms.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize decomposes s, drops combining marks and lower-cases the result.
// It never fails; input that cannot be transformed is lower-cased as is.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// EscapeLike escapes LIKE wildcards so a term matches literally with ESCAPE '\'.
func EscapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// LikePattern normalizes a search term into a %term% pattern.
func LikePattern(term string) string {
	return "%" + EscapeLike(Normalize(strings.TrimSpace(term))) + "%"
}
