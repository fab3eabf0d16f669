package game

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const hintMask = "***"

// Hint masks an answer down to its initials.
//
//	"shah rukh khan" -> "S*** R*** K***"
//	"madonna"        -> "M***A"
//
// Single-word answers also reveal the last letter, even when it is the first one.
func Hint(answer string) string {
	tokens := strings.Fields(answer)
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		first, _ := utf8.DecodeRuneInString(tokens[0])
		last, _ := utf8.DecodeLastRuneInString(tokens[0])
		return upper(first) + hintMask + upper(last)
	}
	return strings.Join(lo.Map(tokens, func(tok string, _ int) string {
		first, _ := utf8.DecodeRuneInString(tok)
		return upper(first) + hintMask
	}), " ")
}

// Normalize folds free text into the form answers are stored and compared in.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Display title-cases a stored answer for user-facing messages. Every run of
// letters starts a word, so "o'neal" becomes "O'Neal" and "jean-luc" becomes
// "Jean-Luc".
func Display(answer string) string {
	title := cases.Title(language.Und)
	var b strings.Builder
	b.Grow(len(answer))
	for rest := answer; rest != ""; {
		start := strings.IndexFunc(rest, unicode.IsLetter)
		if start < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:start])
		rest = rest[start:]

		end := strings.IndexFunc(rest, func(r rune) bool { return !unicode.IsLetter(r) })
		if end < 0 {
			end = len(rest)
		}
		b.WriteString(title.String(rest[:end]))
		rest = rest[end:]
	}
	return b.String()
}

func upper(r rune) string {
	return string(unicode.ToUpper(r))
}
