// Package textproc rewrites Chatwork message markup into plain structured text
// suitable for long-term archival. The rewrite is an ordered sequence of rules;
// later rules assume earlier noise is already gone, and every rule is a no-op
// on text it has already cleaned, so re-running the pipeline on its own output
// is safe.
package textproc

import (
	"fmt"
	"regexp"
	"strings"
)

// NameTable maps Chatwork account ids to display names, built per batch from
// the batch's own sender metadata.
type NameTable map[int64]string

// Separator is the literal line substituted for [hr] tags.
const Separator = "----------------------------------------"

var (
	reQtMeta   = regexp.MustCompile(`\[qtmeta aid=\d+(?: time=\d+)?\]`)
	reTo       = regexp.MustCompile(`\[To:(\d+)\]`)
	reDtext    = regexp.MustCompile(`\[dtext:([0-9A-Za-z_]+)\]`)
	rePiconNm  = regexp.MustCompile(`\[piconname:(\d+)\]`)
	reTitle    = regexp.MustCompile(`(?s)\[title\](.*?)\[/title\]`)
	reQt       = regexp.MustCompile(`(?s)\[qt\](.*?)\[/qt\]`)
	reDownload = regexp.MustCompile(`(?s)\[download:\d+\](.*?)\[/download\]`)
	reNoise    = regexp.MustCompile(`\[picon:\d+\]|\[preview id=\d+(?: ht=\d+)?\]|\[rp aid=\d+ to=\d+-\d+\]|\[deleted\]`)
	reBlank    = regexp.MustCompile(`\n{3,}`)
)

// Transformer holds the rewrite vocabulary. The zero value uses the package
// defaults; Phrases and MaskWords can be replaced from external data files.
type Transformer struct {
	Phrases   map[string]string
	MaskWords []string

	foldedWords []string
}

// Transform converts one raw message body into normalized plain text.
// Malformed or empty input yields "" and never an error; callers must skip
// empty results rather than archiving blank entries.
func (t *Transformer) Transform(body string, names NameTable) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	s := body

	// Quote bookkeeping carries numeric ids; strip it before any id-based rule.
	s = reQtMeta.ReplaceAllString(s, "")

	s = reTo.ReplaceAllStringFunc(s, func(m string) string {
		id := parseTagID(reTo, m)
		if name, ok := names[id]; ok && name != "" {
			return "【TO: " + name + "】"
		}
		return "【TO: 】"
	})

	s = reDtext.ReplaceAllStringFunc(s, func(m string) string {
		code := reDtext.FindStringSubmatch(m)[1]
		if phrase, ok := t.phrases()[code]; ok {
			return phrase
		}
		// Unknown codes stay literal so vocabulary gaps show up in the archive.
		return m
	})

	s = rePiconNm.ReplaceAllStringFunc(s, func(m string) string {
		id := parseTagID(rePiconNm, m)
		if name, ok := names[id]; ok && name != "" {
			return name
		}
		return fmt.Sprintf("(user:%d)", id)
	})

	s = reTitle.ReplaceAllStringFunc(s, func(m string) string {
		inner := reTitle.FindStringSubmatch(m)[1]
		return "\n【 " + strings.TrimSpace(inner) + " 】\n"
	})
	s = strings.ReplaceAll(s, "[info]", "\n\n")
	s = strings.ReplaceAll(s, "[/info]", "\n\n")

	s = reQt.ReplaceAllStringFunc(s, func(m string) string {
		inner := reQt.FindStringSubmatch(m)[1]
		lines := strings.Split(strings.Trim(inner, "\n"), "\n")
		for i, ln := range lines {
			lines[i] = "> " + ln
		}
		return "\n" + strings.Join(lines, "\n") + "\n"
	})

	s = reDownload.ReplaceAllStringFunc(s, func(m string) string {
		inner := reDownload.FindStringSubmatch(m)[1]
		return "(attachment: " + strings.TrimSpace(inner) + ")"
	})

	s = strings.ReplaceAll(s, "[hr]", "\n"+Separator+"\n")

	s = reNoise.ReplaceAllString(s, "")

	return CollapseBlankLines(s)
}

// CollapseBlankLines squeezes runs of three or more newlines down to one blank
// line and trims surrounding whitespace. Applying it twice equals applying it once.
func CollapseBlankLines(s string) string {
	s = reBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func (t *Transformer) phrases() map[string]string {
	if t.Phrases != nil {
		return t.Phrases
	}
	return defaultDtextPhrases
}

func parseTagID(re *regexp.Regexp, m string) int64 {
	var id int64
	for _, r := range re.FindStringSubmatch(m)[1] {
		id = id*10 + int64(r-'0')
	}
	return id
}
