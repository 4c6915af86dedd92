package textproc

import (
	"strings"
	"testing"
)

func TestMaskSecretLines(t *testing.T) {
	tr := &Transformer{}
	body := "first line\nthe PASSWORD is hunter2\nlast line"
	got := tr.MaskSecretLines(body)
	lines := strings.Split(got, "\n")
	if len(lines) != 3 {
		t.Fatalf("line count changed: %q", got)
	}
	if lines[0] != "first line" || lines[2] != "last line" {
		t.Errorf("clean lines must be untouched: %q", got)
	}
	if lines[1] != MaskedLine {
		t.Errorf("hit line must be replaced wholesale, got %q", lines[1])
	}
}

func TestMaskSecretLinesCaseAndWidth(t *testing.T) {
	tr := &Transformer{}
	for _, line := range []string{
		"Password: abc",
		"pAsSwOrD abc",
		"ＰＡＳＳＷＯＲＤ abc", // full-width
		"新しいパスワードは abc です",
	} {
		if got := tr.MaskSecretLines(line); got != MaskedLine {
			t.Errorf("line %q not masked, got %q", line, got)
		}
	}
}

func TestMaskSecretLinesNoHit(t *testing.T) {
	tr := &Transformer{}
	body := "nothing secret here\npass the salt"
	if got := tr.MaskSecretLines(body); got != body {
		t.Errorf("body without keywords must pass through, got %q", got)
	}
}

func TestMaskSecretLinesCustomWords(t *testing.T) {
	tr := &Transformer{MaskWords: []string{"token"}}
	if got := tr.MaskSecretLines("the API ToKeN is xyz"); got != MaskedLine {
		t.Errorf("custom keyword not applied: %q", got)
	}
	// A custom list replaces the defaults entirely.
	if got := tr.MaskSecretLines("password here"); got != "password here" {
		t.Errorf("default keyword should not apply with a custom list, got %q", got)
	}
}

func TestMaskSecretLinesEmpty(t *testing.T) {
	tr := &Transformer{}
	if got := tr.MaskSecretLines(""); got != "" {
		t.Errorf("empty body must stay empty, got %q", got)
	}
}
