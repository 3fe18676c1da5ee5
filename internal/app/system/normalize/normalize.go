// Package normalize canonicalizes user-entered identifiers before they are
// stored or compared.
package normalize

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Username length bounds, in runes.
const (
	MinUsernameRunes = 3
	MaxUsernameRunes = 30
)

var ErrBadUsername = errors.New("username must be 3-30 letters, digits, '_' or '-'")

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims, collapses inner whitespace and applies NFC so the same name
// typed on different keyboards compares equal.
func Name(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Username returns the NFC form of s after checking it can be used in a
// collection name. Letters from any script are allowed.
func Username(s string) (string, error) {
	u := norm.NFC.String(strings.TrimSpace(s))
	n := utf8.RuneCountInString(u)
	if n < MinUsernameRunes || n > MaxUsernameRunes {
		return "", ErrBadUsername
	}
	for _, r := range u {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || r == '_' || r == '-' {
			continue
		}
		return "", ErrBadUsername
	}
	return u, nil
}

// UsernameFromEmail derives a username candidate from an email's local part,
// dropping characters Username would reject.
func UsernameFromEmail(email string) string {
	local, _, _ := strings.Cut(Email(email), "@")
	var b strings.Builder
	for _, r := range local {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PoetDisplayName turns a poet id such as "faiz-ahmed_faiz" into
// "Faiz Ahmed Faiz". Used when a poet has no profile document.
func PoetDisplayName(id string) string {
	parts := strings.FieldsFunc(id, func(r rune) bool { return r == '-' || r == '_' || unicode.IsSpace(r) })
	// Casers carry state; build one per call.
	return cases.Title(language.Und).String(strings.Join(parts, " "))
}

// Lines splits verse content into its non-blank lines, NFC-normalized and
// trimmed.
func Lines(content string) []string {
	out := []string{}
	for _, l := range strings.Split(norm.NFC.String(content), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}
