// Package format prepares user-supplied text for Telegram's legacy Markdown
// parse mode.
package format

import "strings"

// markdownSpecials are the characters legacy Markdown treats as markup.
const markdownSpecials = "_*`["

var escaper = func() *strings.Replacer {
	pairs := make([]string, 0, 2*len(markdownSpecials))
	for _, r := range markdownSpecials {
		pairs = append(pairs, string(r), `\`+string(r))
	}
	return strings.NewReplacer(pairs...)
}()

// Escape escapes text for legacy Markdown, the parse mode used by helpers.SendMD.
func Escape(text string) string {
	return escaper.Replace(text)
}
