// Package analysis turns raw document lines into normalized tokens, tracks which
// structural tags are open while a document is scanned, and stems words.
package analysis

import (
	"iter"
	"regexp"
	"strings"
)

// Punctuation is stripped from both edges of every word. Angle brackets are not
// in the set so that tag markers survive normalization.
const Punctuation = "!\"#$%&'()*+,-./:;=?@[\\]^_`{|}~"

// Dash is the standalone token produced for a literal double hyphen.
const Dash = "--"

var boldAlias = regexp.MustCompile(`(?i)<(/?)strong>`)

// Token is either a word or a tag marker.
type Token struct {
	// Text is the normalized token as it appeared after splitting ("bold", "<b>", "</h1>").
	Text string
	// Tag is the marker name when Markup is set.
	Tag     string
	Markup  bool
	Closing bool
}

// Word returns a word token.
func Word(text string) Token {
	return Token{Text: text}
}

// OpenTag returns the opening marker for name.
func OpenTag(name string) Token {
	return Token{Text: "<" + name + ">", Tag: name, Markup: true}
}

// CloseTag returns the closing marker for name.
func CloseTag(name string) Token {
	return Token{Text: "</" + name + ">", Tag: name, Markup: true, Closing: true}
}

// Tokens returns the tokens of one line in order. The sequence is single-use.
func Tokens(line string) iter.Seq[Token] {
	return func(yield func(Token) bool) {
		for _, piece := range strings.Fields(separate(line)) {
			tok, ok := normalize(piece)
			if !ok {
				continue
			}
			if !yield(tok) {
				return
			}
		}
	}
}

// Tokenize collects Tokens(line) into a slice.
func Tokenize(line string) []Token {
	var out []Token
	for tok := range Tokens(line) {
		out = append(out, tok)
	}
	return out
}

// separate applies the line-level rewrites that precede whitespace splitting.
func separate(line string) string {
	line = strings.TrimSpace(line)
	line = strings.ReplaceAll(line, Dash, " "+Dash+" ")
	line = boldAlias.ReplaceAllString(line, "<${1}b>")
	line = strings.ReplaceAll(line, "<", " <")
	return strings.ReplaceAll(line, ">", "> ")
}

func normalize(piece string) (Token, bool) {
	if piece == Dash {
		return Word(Dash), true
	}
	text := strings.ToLower(strings.Trim(piece, Punctuation))
	if text == "" {
		return Token{}, false
	}
	if name, closing, ok := ParseTag(text); ok {
		return Token{Text: text, Tag: name, Markup: true, Closing: closing}, true
	}
	return Word(text), true
}
