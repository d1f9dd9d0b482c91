package search

import (
	"iter"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultSnippetWindow is the number of bytes shown on each side of a match.
const DefaultSnippetWindow = 37

// SnippetExtractor cuts excerpts around query term matches.
type SnippetExtractor struct {
	pattern *regexp.Regexp // nil when there is nothing to match
	window  int
}

// NewSnippetExtractor builds one case-insensitive pattern matching each term as
// a whole word and each stem as a word prefix. A window of 0 or less uses
// DefaultSnippetWindow.
func NewSnippetExtractor(terms, stems []string, window int) *SnippetExtractor {
	if window <= 0 {
		window = DefaultSnippetWindow
	}
	seen := make(map[string]bool)
	var alts []string
	add := func(alt string) {
		if !seen[alt] {
			seen[alt] = true
			alts = append(alts, alt)
		}
	}
	for _, t := range terms {
		if t != "" {
			add(wordBoundary(t, true) + regexp.QuoteMeta(t) + wordBoundary(t, false))
		}
	}
	for _, s := range stems {
		if s != "" {
			add(wordBoundary(s, true) + regexp.QuoteMeta(s))
		}
	}
	s := &SnippetExtractor{window: window}
	if len(alts) > 0 {
		s.pattern = regexp.MustCompile(`(?i)` + strings.Join(alts, "|"))
	}
	return s
}

// wordBoundary returns `\b` when the first (or last) byte of term is an ASCII
// word character. A boundary next to punctuation or non-ASCII letters would
// never match.
func wordBoundary(term string, leading bool) string {
	b := term[len(term)-1]
	if leading {
		b = term[0]
	}
	if b == '_' || ('0' <= b && b <= '9') || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z') {
		return `\b`
	}
	return ""
}

// Snippets yields one excerpt per match in text, in order. Each excerpt spans
// window bytes either side of the match start, stretched to cover the whole
// match, clipped to the text, and wrapped in ellipses.
func (s *SnippetExtractor) Snippets(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if s.pattern == nil {
			return
		}
		for _, m := range s.pattern.FindAllStringIndex(text, -1) {
			start, end := s.bounds(text, m[0], m[1])
			excerpt := strings.TrimSpace(text[start:end])
			if !yield("..." + excerpt + "...") {
				return
			}
		}
	}
}

// Extract collects Snippets(text).
func (s *SnippetExtractor) Extract(text string) []string {
	var out []string
	for snippet := range s.Snippets(text) {
		out = append(out, snippet)
	}
	return out
}

// bounds returns the excerpt range for a match at [ms, me).
func (s *SnippetExtractor) bounds(text string, ms, me int) (int, int) {
	start := max(ms-s.window, 0)
	end := min(max(ms+s.window, me), len(text))
	for start < ms && !utf8.RuneStart(text[start]) {
		start++
	}
	for end < len(text) && !utf8.RuneStart(text[end]) {
		end++
	}
	return start, end
}

// whitespaceRun matches a run of Unicode whitespace.
var whitespaceRun = regexp.MustCompile(`[\s\v\x{1c}-\x{1f}\x{85}\p{Z}]+`)

// CollapseWhitespace replaces every whitespace run with one space. Leading and
// trailing runs become a single space too; they are not trimmed.
func CollapseWhitespace(text string) string {
	return whitespaceRun.ReplaceAllLiteralString(text, " ")
}
