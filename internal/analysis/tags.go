package analysis

import "regexp"

var tagPattern = regexp.MustCompile(`^<(/?)(.*?)>$`)

// ParseTag reports whether token is tag markup and, if so, its inner name and
// whether it closes the tag. Tokens that fail the grammar are ordinary words.
func ParseTag(token string) (name string, closing bool, ok bool) {
	m := tagPattern.FindStringSubmatch(token)
	if m == nil {
		return "", false, false
	}
	return m[2], m[1] == "/", true
}

// TagTracker records which recognized tags are open while one document is
// scanned. Open and close markers set and clear a flag; there is no nesting,
// so the last marker seen for a tag wins and unmatched closes are harmless.
type TagTracker struct {
	tags  []string
	index map[string]int
	open  []bool
	// active caches the open tags in recognized order; rebuilt on every change.
	active []string
}

// NewTagTracker creates a tracker for the recognized tag names, all closed.
func NewTagTracker(tags []string) *TagTracker {
	t := &TagTracker{
		tags:  append([]string(nil), tags...),
		index: make(map[string]int, len(tags)),
		open:  make([]bool, len(tags)),
	}
	for i, tag := range t.tags {
		t.index[tag] = i
	}
	return t
}

// Reset closes every tag. Called at the start of each document.
func (t *TagTracker) Reset() {
	for i := range t.open {
		t.open[i] = false
	}
	t.active = t.active[:0]
}

// Apply updates the state for a markup token. It returns false for words and
// for markup naming a tag outside the recognized set; neither changes state.
func (t *TagTracker) Apply(tok Token) bool {
	if !tok.Markup {
		return false
	}
	i, ok := t.index[tok.Tag]
	if !ok {
		return false
	}
	if t.open[i] == !tok.Closing {
		return true
	}
	t.open[i] = !tok.Closing
	t.active = t.active[:0]
	for j, isOpen := range t.open {
		if isOpen {
			t.active = append(t.active, t.tags[j])
		}
	}
	return true
}

// IsOpen reports whether tag is currently open.
func (t *TagTracker) IsOpen(tag string) bool {
	i, ok := t.index[tag]
	return ok && t.open[i]
}

// Open returns the open tags in recognized order. The slice is owned by the
// tracker and is only valid until the next call to Apply or Reset.
func (t *TagTracker) Open() []string {
	return t.active
}
