package merger

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	latinTerminators = ".!?"
	cjkTerminators   = "。！？"

	// closers may follow a terminator without ending the sentence early.
	closers = "\"')]}»”’」』）】》"

	cjkPunctuation = "，、；：“”‘’（）《》「」『』【】。！？"
)

// endsSentence reports whether text ends with a sentence terminator,
// optionally followed by closing quotes or brackets.
func endsSentence(text string) bool {
	s := strings.TrimRightFunc(text, unicode.IsSpace)
	for s != "" {
		r, size := utf8.DecodeLastRuneInString(s)
		if strings.ContainsRune(closers, r) {
			s = s[:len(s)-size]
			continue
		}
		return strings.ContainsRune(latinTerminators, r) || strings.ContainsRune(cjkTerminators, r)
	}
	return false
}
