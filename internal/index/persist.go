package index

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrMalformed is returned when a persisted index does not have the expected shape.
var ErrMalformed = errors.New("malformed index")

// MarshalJSON encodes a posting as [documentId, weight, histogram].
func (p Posting) MarshalJSON() ([]byte, error) {
	tags := p.Tags
	if tags == nil {
		tags = Histogram{}
	}
	return json.Marshal([]any{p.DocID, p.Weight, tags})
}

// UnmarshalJSON decodes [documentId, weight, histogram].
func (p *Posting) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: posting: %v", ErrMalformed, err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("%w: posting has %d fields, want 3", ErrMalformed, len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.DocID); err != nil {
		return fmt.Errorf("%w: posting document id: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(raw[1], &p.Weight); err != nil {
		return fmt.Errorf("%w: posting weight: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(raw[2], &p.Tags); err != nil {
		return fmt.Errorf("%w: posting tags: %v", ErrMalformed, err)
	}
	return nil
}

// MarshalJSON encodes a term entry as [idf, postings].
func (e TermEntry) MarshalJSON() ([]byte, error) {
	postings := e.Postings
	if postings == nil {
		postings = []Posting{}
	}
	return json.Marshal([]any{e.IDF, postings})
}

// UnmarshalJSON decodes [idf, postings].
func (e *TermEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: term entry: %v", ErrMalformed, err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("%w: term entry has %d fields, want 2", ErrMalformed, len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.IDF); err != nil {
		return fmt.Errorf("%w: idf: %v", ErrMalformed, err)
	}
	if err := json.Unmarshal(raw[1], &e.Postings); err != nil {
		if errors.Is(err, ErrMalformed) {
			return err
		}
		return fmt.Errorf("%w: postings: %v", ErrMalformed, err)
	}
	return nil
}

// Write encodes x to w.
func Write(w io.Writer, x *InvertedIndex) error {
	bw := bufio.NewWriter(w)
	if err := json.NewEncoder(bw).Encode(x.Terms); err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return bw.Flush()
}

// Read decodes an index from r.
func Read(r io.Reader) (*InvertedIndex, error) {
	terms := make(map[string]*TermEntry)
	if err := json.NewDecoder(bufio.NewReader(r)).Decode(&terms); err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for key, e := range terms {
		if e == nil {
			return nil, fmt.Errorf("%w: term %q is null", ErrMalformed, key)
		}
	}
	x := &InvertedIndex{Terms: terms}
	x.Documents = x.countDocuments()
	return x, nil
}

// Save writes x to path. The file is written to a hidden sibling named after
// path and renamed into place, so readers never observe a partial index.
func Save(path string, x *InvertedIndex) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create index directory %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := Write(tmp, x); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set index permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp index file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to move index into place: %w", err)
	}
	return nil
}

// Load reads the index stored at path.
func Load(path string) (*InvertedIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index %s: %w", path, err)
	}
	defer f.Close()
	x, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load index %s: %w", path, err)
	}
	return x, nil
}
