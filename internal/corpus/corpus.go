// Package corpus reads the document collection: a root directory of numbered
// subdirectories holding document files, plus a links table mapping each document
// to the URL it was fetched from.
package corpus

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"
)

// Corpus is a document collection rooted at a directory.
type Corpus struct {
	root string
}

// New returns a corpus rooted at root.
func New(root string) *Corpus {
	return &Corpus{root: root}
}

// Root returns the corpus root directory.
func (c *Corpus) Root() string {
	return c.root
}

// List returns the ids ("subdir/filename") of every regular file inside every
// immediate subdirectory of the root, in sorted order. Files directly in the root
// (such as the links table) and deeper levels are not documents.
func (c *Corpus) List() ([]string, error) {
	entries, err := os.ReadDir(c.root)
	if err != nil {
		return nil, fmt.Errorf("read corpus root: %w", err)
	}
	var ids []string
	for _, dir := range entries {
		if !c.isDir(dir) {
			continue
		}
		files, err := os.ReadDir(filepath.Join(c.root, dir.Name()))
		if err != nil {
			return nil, fmt.Errorf("read corpus directory %s: %w", dir.Name(), err)
		}
		for _, f := range files {
			// Resolve symlinks so we only list regular files
			info, err := os.Stat(filepath.Join(c.root, dir.Name(), f.Name()))
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			ids = append(ids, path.Join(dir.Name(), f.Name()))
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (c *Corpus) isDir(e os.DirEntry) bool {
	if e.IsDir() {
		return true
	}
	info, err := os.Stat(filepath.Join(c.root, e.Name()))
	return err == nil && info.IsDir()
}

// Path returns the filesystem path of document id.
func (c *Corpus) Path(id string) string {
	return filepath.Join(c.root, filepath.FromSlash(id))
}

// Read returns the content of document id as valid UTF-8.
func (c *Corpus) Read(id string) (string, error) {
	if !validID(id) {
		return "", fmt.Errorf("invalid document id %q", id)
	}
	content, err := os.ReadFile(c.Path(id))
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", id, err)
	}
	return plainText(content), nil
}

// Content implements search.DocumentSource.
func (c *Corpus) Content(_ context.Context, id string) (string, error) {
	return c.Read(id)
}

// validID rejects ids that would escape the corpus root.
func validID(id string) bool {
	if id == "" || path.IsAbs(id) {
		return false
	}
	clean := path.Clean(id)
	return clean == id && clean != ".." && !strings.HasPrefix(clean, "../")
}

// plainText returns content as a string, replacing invalid UTF-8 sequences with
// the replacement character.
func plainText(content []byte) string {
	if !utf8.Valid(content) {
		return strings.ToValidUTF8(string(content), "�")
	}
	return string(content)
}
