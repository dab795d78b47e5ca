package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFacts_ParsesTabSeparatedTriples(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facts.txt")
	content := "# comment\nB1\ton\tB2\n\nB1\tcolor\tred\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write facts file: %v", err)
	}

	facts, err := loadFacts(path)
	if err != nil {
		t.Fatalf("loadFacts: %v", err)
	}
	if len(facts) != 2 {
		t.Fatalf("got %d facts, want 2", len(facts))
	}
	if facts[0].Identifier != "B1" || facts[0].Attribute != "on" || facts[0].Value != "B2" {
		t.Fatalf("unexpected fact 0: %#v", facts[0])
	}
}

func TestLoadFacts_MissingFileReturnsNone(t *testing.T) {
	facts, err := loadFacts(filepath.Join(t.TempDir(), "missing.txt"))
	if err != nil {
		t.Fatalf("loadFacts: %v", err)
	}
	if facts != nil {
		t.Fatalf("got %v, want nil", facts)
	}
}

func TestLoadFacts_MalformedLineErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "facts.txt")
	if err := os.WriteFile(path, []byte("B1\ton\n"), 0644); err != nil {
		t.Fatalf("write facts file: %v", err)
	}
	if _, err := loadFacts(path); err == nil {
		t.Fatal("expected an error for a malformed line")
	}
}
