package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ErrMalformedLinks is returned for a links table line without a tab separator.
var ErrMalformedLinks = errors.New("malformed links table")

// UnknownSource is shown in place of a URL when a document has no links entry.
const UnknownSource = "<unknown source>"

// Links maps document ids to source URLs.
type Links map[string]string

// URL returns the source URL for id, or UnknownSource and false.
func (l Links) URL(id string) (string, bool) {
	if u, ok := l[id]; ok {
		return u, true
	}
	return UnknownSource, false
}

// LoadLinks reads a tab-separated links table from path.
func LoadLinks(path string) (Links, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open links table: %w", err)
	}
	defer f.Close()
	return ReadLinks(f)
}

// ReadLinks parses "id<TAB>url" lines. Blank lines are skipped.
func ReadLinks(r io.Reader) (Links, error) {
	links := make(Links)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		id, url, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("%w: line %d has no tab", ErrMalformedLinks, lineNo)
		}
		links[strings.TrimSpace(id)] = strings.TrimSpace(url)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read links table: %w", err)
	}
	return links, nil
}
