package storage

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDiskUsageBytes(t *testing.T) {
	dir := t.TempDir()

	index := filepath.Join(dir, "index.json")
	if err := os.WriteFile(index, []byte(`{"a":[0,[]]}`), 0644); err != nil {
		t.Fatal(err)
	}
	cache := filepath.Join(dir, "cache")
	if err := os.MkdirAll(filepath.Join(cache, "nested"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cache, "a"), []byte("ab"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cache, "nested", "b"), []byte("c"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		paths []string
		want  int64
	}{
		{"single file", []string{index}, 12},
		{"directory", []string{cache}, 3},
		{"file and directory", []string{index, cache}, 15},
		{"missing skipped", []string{index, filepath.Join(dir, "absent"), cache}, 15},
		{"empty skipped", []string{"", index}, 12},
		{"nothing", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DiskUsageBytes(tt.paths...)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("DiskUsageBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDatabaseFiles(t *testing.T) {
	if got := DatabaseFiles(""); got != nil {
		t.Errorf("DatabaseFiles(\"\") = %v", got)
	}
	got := DatabaseFiles("/tmp/docs.db")
	if len(got) != 3 || got[1] != "/tmp/docs.db-wal" {
		t.Errorf("DatabaseFiles() = %v", got)
	}
}
