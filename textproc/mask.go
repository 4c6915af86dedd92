package textproc

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// MaskedLine replaces any line that looks like it carries a credential.
// The whole line goes, never a partial redaction: over-masking is the
// acceptable failure mode here.
const MaskedLine = "***** (masked) *****"

var foldCaser = cases.Fold()

// foldLine normalizes a line for keyword matching: full-width forms are
// folded to half-width and case is Unicode-folded, so "ＰＡＳＳＷＯＲＤ" and
// "Password" both hit the half-width lowercase keyword list.
func foldLine(s string) string {
	return foldCaser.String(width.Fold.String(s))
}

// MaskSecretLines scans a transformed body line by line and replaces any line
// containing a password-like keyword with MaskedLine. It runs after the
// structural transform and before header prefixing.
func (t *Transformer) MaskSecretLines(body string) string {
	if body == "" {
		return ""
	}
	if t.foldedWords == nil {
		words := t.MaskWords
		if words == nil {
			words = defaultMaskWords
		}
		t.foldedWords = make([]string, len(words))
		for i, w := range words {
			t.foldedWords[i] = foldLine(w)
		}
	}
	lines := strings.Split(body, "\n")
	for i, ln := range lines {
		folded := foldLine(ln)
		for _, w := range t.foldedWords {
			if strings.Contains(folded, w) {
				lines[i] = MaskedLine
				break
			}
		}
	}
	return strings.Join(lines, "\n")
}
