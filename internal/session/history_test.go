package session

import (
	"path/filepath"
	"testing"
)

func TestHistoryStoreAddAndRecent(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenHistoryStore(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("OpenHistoryStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Add("query_replace", "foo"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := store.Add("query_replace", "bar"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	entries, err := store.Recent("query_replace", 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 || entries[0] != "bar" || entries[1] != "foo" {
		t.Fatalf("entries = %v, want [bar foo] (newest first)", entries)
	}
}

func TestHistoryStoreKeepsKindsSeparate(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenHistoryStore(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("OpenHistoryStore failed: %v", err)
	}
	defer store.Close()

	store.Add("file_open", "a.txt")
	store.Add("query_replace", "b")

	fileOpen, _ := store.Recent("file_open", 10)
	replace, _ := store.Recent("query_replace", 10)

	if len(fileOpen) != 1 || fileOpen[0] != "a.txt" {
		t.Fatalf("file_open history = %v", fileOpen)
	}
	if len(replace) != 1 || replace[0] != "b" {
		t.Fatalf("query_replace history = %v", replace)
	}
}
