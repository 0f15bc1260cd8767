// Package normalize derives comparison keys from free-text person names.
//
// Two spellings of the same name map to the same key when they differ only in
// letter case, punctuation, word order, diacritics, or glued initials
// ("JDoe" vs "J Doe"). The key is only used to detect duplicates; it is never
// shown to users.
package normalize

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf16"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxKeyLength is the width of the working key column, in UTF-16 code units.
const MaxKeyLength = 500

// Letter ranges kept verbatim by punctuation stripping, in addition to word characters.
var keptRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x0400, Hi: 0x04FF, Stride: 1}, // Cyrillic
		{Lo: 0x0600, Hi: 0x06FF, Stride: 1}, // Arabic
		{Lo: 0x4E00, Hi: 0x9FFF, Stride: 1}, // CJK Unified Ideographs
	},
}

// Key returns the comparison key for name. It never fails; blank or
// punctuation-only input yields "".
//
// Steps, in order: split case boundaries, lowercase, strip punctuation,
// collapse whitespace, sort words, fold diacritics.
func Key(name string) string {
	name = separateInitials(name)
	name = strings.ToLower(name)
	name = removePunctuation(name)
	name = strings.Join(strings.Fields(name), " ")
	name = sortWords(name)
	return removeDiacritics(name)
}

// separateInitials inserts a space where a new capitalized word starts inside a
// run of letters: "JohnSmith" -> "John Smith", "JDoe" -> "J Doe". All-caps
// words are left alone.
func separateInitials(name string) string {
	rs := []rune(name)
	if len(rs) < 2 {
		return name
	}

	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteRune(' ')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsMark(r)
}

func removePunctuation(name string) string {
	return strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) || unicode.Is(keptRanges, r) {
			return r
		}
		return ' '
	}, name)
}

func sortWords(name string) string {
	words := strings.Fields(name)
	sort.Strings(words)
	return strings.Join(words, " ")
}

func removeDiacritics(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	folded, _, err := transform.String(t, name)
	if err != nil {
		return name
	}
	return folded
}

// Truncate clips key to at most max UTF-16 code units without splitting a rune.
// SQL Server counts NVARCHAR length in UTF-16 units; the other stores count
// characters, so this bound satisfies all of them.
func Truncate(key string, max int) string {
	if max <= 0 {
		return ""
	}
	units := 0
	for i, r := range key {
		n := utf16.RuneLen(r)
		if n < 0 {
			n = 1
		}
		if units+n > max {
			return key[:i]
		}
		units += n
	}
	return key
}
