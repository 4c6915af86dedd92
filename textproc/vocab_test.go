package textproc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadPhrasesMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vocab.json")
	if err := os.WriteFile(path, []byte(`{"zz_new":"did something new","file_uploaded":"attached a file"}`), 0o600); err != nil {
		t.Fatal(err)
	}
	phrases, err := LoadPhrases(path)
	if err != nil {
		t.Fatalf("LoadPhrases error: %v", err)
	}
	if phrases["zz_new"] != "did something new" {
		t.Errorf("new code missing: %v", phrases["zz_new"])
	}
	if phrases["file_uploaded"] != "attached a file" {
		t.Errorf("override lost: %v", phrases["file_uploaded"])
	}
	if phrases["task_added"] != defaultDtextPhrases["task_added"] {
		t.Errorf("defaults not carried through")
	}
}

func TestLoadPhrasesBadFile(t *testing.T) {
	if _, err := LoadPhrases(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte(`[`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadPhrases(path); err == nil {
		t.Errorf("expected error for malformed JSON")
	}
}

func TestLoadMaskWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	if err := os.WriteFile(path, []byte(`["geheim","secret"]`), 0o600); err != nil {
		t.Fatal(err)
	}
	words, err := LoadMaskWords(path)
	if err != nil {
		t.Fatalf("LoadMaskWords error: %v", err)
	}
	if len(words) != len(defaultMaskWords)+2 {
		t.Errorf("expected defaults plus 2, got %d", len(words))
	}
}
