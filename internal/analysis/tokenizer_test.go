package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize_boldAndDash(t *testing.T) {
	got := Tokenize("<B>Bold--text</B>!")
	want := []Token{OpenTag("b"), Word("bold"), Word(Dash), Word("text"), CloseTag("b")}
	assert.Equal(t, want, got)
}

func TestTokenize_strongAlias(t *testing.T) {
	assert.Equal(t,
		[]Token{OpenTag("b"), Word("very"), Word("important"), CloseTag("b")},
		Tokenize("<strong>Very important</STRONG>"))
	assert.Equal(t, Tokenize("<b>x</b>"), Tokenize("<strong>x</strong>"))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"whitespace only", " \t  ", nil},
		{"empty", "", nil},
		{"punctuation stripped at edges", `"Hello," she said.`, []string{"hello", "she", "said"}},
		{"inner punctuation kept", "e-mail co.uk", []string{"e-mail", "co.uk"}},
		{"only punctuation dropped", "... !!! ?", nil},
		{"tags split from words", "<h1>Title</h1>", []string{"<h1>", "title", "</h1>"}},
		{"attributes break tag grammar", `<a href="x.html">link</a>`, []string{"<a", "href=\"x.html\">", "link", "</a>"}},
		{"triple hyphen", "a---b", []string{"a", "--", "b"}},
		{"order preserved", "one two three", []string{"one", "two", "three"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, tok := range Tokenize(tt.line) {
				got = append(got, tok.Text)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokens_stopsWhenYieldReturnsFalse(t *testing.T) {
	var seen []string
	for tok := range Tokens("alpha beta gamma delta") {
		seen = append(seen, tok.Text)
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"alpha", "beta"}, seen)
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		token   string
		name    string
		closing bool
		ok      bool
	}{
		{"<h1>", "h1", false, true},
		{"</h1>", "h1", true, true},
		{"<>", "", false, true},
		{"<div>", "div", false, true},
		{"<a", "", false, false},
		{"h1>", "", false, false},
		{"word", "", false, false},
	}
	for _, tt := range tests {
		name, closing, ok := ParseTag(tt.token)
		assert.Equal(t, tt.ok, ok, "ParseTag(%q) ok", tt.token)
		assert.Equal(t, tt.name, name, "ParseTag(%q) name", tt.token)
		assert.Equal(t, tt.closing, closing, "ParseTag(%q) closing", tt.token)
	}
}

func TestTokenize_malformedMarkupIsWord(t *testing.T) {
	toks := Tokenize("<a")
	require.Len(t, toks, 1)
	assert.False(t, toks[0].Markup)
	assert.Equal(t, "<a", toks[0].Text)
}
