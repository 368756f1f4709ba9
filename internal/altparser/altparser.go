// Package altparser implements the Response Parser: it turns a
// vision-language model's free-form {response, thinking} reply into the
// canonical alt-text record, tolerating JSON, fenced JSON, plain prose, or
// chain-of-thought-only answers.
package altparser

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxAltTextLength is the hard cap on a composed alt-text.
const MaxAltTextLength = 400

// Record is the canonical alt-text record the parser produces.
type Record struct {
	Bildtyp      string
	AltText      string
	IstDekorativ bool
	Konfidenz    string
	RawResponse  string
}

var (
	thinkBlockRe    = regexp.MustCompile(`(?is)<think>.*?</think>`)
	fencedJSONRe    = regexp.MustCompile(`\{[^{}]*"alt_text"[^{}]*\}`)
	metaPhrases     = []string{"should be", "would be", "the user", "according to", "the rules say"}
	bildtypKeywords = []string{"logo", "foto", "diagramm", "chart", "tabelle", "screenshot", "icon", "dekorativ", "karte"}

	thinkingStrategies = []*regexp.Regexp{
		regexp.MustCompile(`"alt_text"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)alt[_-]?text\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)alt[_-]?text\s+(?:should|would|could|is|shall)\s+be\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)alt[_-]?text\s+(?:waere|ist|lautet|sollte sein)\s*"([^"]+)"`),
		regexp.MustCompile(`(?is)alt_text.*"([^"]{15,})"\s*$`),
		regexp.MustCompile(`(?i)alt[_-]?text:\s*(.+?)(?:\n|$)`),
	}
)

// jsonCandidate is the loosely-typed shape the model is asked to emit.
type jsonCandidate struct {
	Bildtyp          *string `json:"bildtyp"`
	AltText          *string `json:"alt_text"`
	IstDekorativ     *bool   `json:"ist_dekorativ"`
	Konfidenz        *string `json:"konfidenz"`
	Langbeschreibung *string `json:"langbeschreibung"`
}

// Parse runs an ordered strategy cascade against one model reply, falling
// back through looser extraction attempts until one succeeds.
func Parse(response, thinking string) Record {
	raw := response
	if raw == "" {
		raw = thinking
	}

	clean := thinkBlockRe.ReplaceAllString(response, "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		clean = strings.TrimSpace(response)
	}

	if rec, ok := fencedJSONScan(clean); ok {
		return finish(rec, raw)
	}
	if rec, ok := outerBraceScan(clean); ok {
		return finish(rec, raw)
	}
	if response == "" && thinking != "" {
		if rec, ok := thinkingSalvage(thinking); ok {
			return finish(rec, raw)
		}
	}
	return finish(fallback(clean, raw), raw)
}

// fencedJSONScan finds every `{...}` containing "alt_text" and keeps the
// last one that parses and has an alt_text key (an empty value counts, so a
// decorative answer survives) — later fenced blocks
// tend to be the model's final answer after earlier scratch attempts.
func fencedJSONScan(clean string) (Record, bool) {
	matches := fencedJSONRe.FindAllString(clean, -1)
	var best Record
	found := false
	for _, m := range matches {
		var c jsonCandidate
		if err := json.Unmarshal([]byte(m), &c); err != nil {
			continue
		}
		if c.AltText == nil {
			continue
		}
		best = recordFromJSON(c)
		found = true
	}
	return best, found
}

// outerBraceScan takes the substring from the first '{' to the last '}'
// and tries it as one JSON object.
func outerBraceScan(clean string) (Record, bool) {
	start := strings.Index(clean, "{")
	end := strings.LastIndex(clean, "}")
	if start == -1 || end == -1 || end <= start {
		return Record{}, false
	}
	var c jsonCandidate
	if err := json.Unmarshal([]byte(clean[start:end+1]), &c); err != nil {
		return Record{}, false
	}
	if c.AltText == nil {
		return Record{}, false
	}
	return recordFromJSON(c), true
}

// thinkingSalvage tries each regex in order against the chain-of-thought
// text, taking the first match whose capture is usable and not the model
// reasoning out loud about the task rather than answering it.
func thinkingSalvage(thinking string) (Record, bool) {
	for _, re := range thinkingStrategies {
		m := re.FindStringSubmatch(thinking)
		if m == nil || len(m) < 2 {
			continue
		}
		candidate := strings.TrimSpace(m[1])
		if len(candidate) <= 10 {
			continue
		}
		if containsMetaPhrase(candidate) {
			continue
		}
		return Record{Bildtyp: inferBildtyp(thinking), AltText: candidate}, true
	}
	return Record{}, false
}

func containsMetaPhrase(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range metaPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func inferBildtyp(text string) string {
	if m := regexp.MustCompile(`"bildtyp"\s*:\s*"([^"]+)"`).FindStringSubmatch(text); m != nil {
		return m[1]
	}
	lower := strings.ToLower(text)
	for _, kw := range bildtypKeywords {
		if strings.Contains(lower, kw) {
			return kw
		}
	}
	return "unbekannt"
}

// fallback strips fenced/JSON noise and, when nothing at all remains, emits
// the "[Modell-Antwort konnte nicht verarbeitet werden: ...]" sentinel record.
func fallback(clean, raw string) Record {
	stripped := stripJSONNoise(clean)
	if len(stripped) < 5 {
		stripped = clean
	}
	stripped = strings.TrimSpace(stripped)
	if stripped != "" {
		return Record{Bildtyp: "unbekannt", AltText: stripped}
	}
	sentinel := "[Modell-Antwort konnte nicht verarbeitet werden: " + truncateRunes(raw, 200) + "]"
	return Record{Bildtyp: "unbekannt", AltText: sentinel}
}

var (
	codeFenceRe = regexp.MustCompile("```[a-zA-Z]*")
	jsonNoiseRe = regexp.MustCompile(`[{}"]`)
)

func stripJSONNoise(s string) string {
	s = codeFenceRe.ReplaceAllString(s, "")
	s = jsonNoiseRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func recordFromJSON(c jsonCandidate) Record {
	rec := Record{}
	if c.Bildtyp != nil {
		rec.Bildtyp = *c.Bildtyp
	}
	if c.AltText != nil {
		rec.AltText = *c.AltText
	}
	if c.IstDekorativ != nil {
		rec.IstDekorativ = *c.IstDekorativ
	}
	if c.Konfidenz != nil {
		rec.Konfidenz = *c.Konfidenz
	}
	if c.Langbeschreibung != nil && *c.Langbeschreibung != "" {
		rec.AltText = composeLongForm(rec.AltText, *c.Langbeschreibung)
	}
	return rec
}

// composeLongForm merges a recovered langbeschreibung field with the short
// alt_text: if the long form already starts with the first 30 characters of
// the short form, keep only the long form; otherwise concatenate them.
func composeLongForm(short, long string) string {
	prefixLen := 30
	if len(short) < prefixLen {
		prefixLen = len(short)
	}
	if prefixLen > 0 && strings.HasPrefix(long, short[:prefixLen]) {
		return long
	}
	if short == "" {
		return long
	}
	return short + ". " + long
}

func finish(rec Record, raw string) Record {
	if rec.Konfidenz == "" {
		rec.Konfidenz = "mittel"
	}
	if rec.Bildtyp == "" {
		rec.Bildtyp = "unbekannt"
	}
	rec.AltText = truncateAltText(rec.AltText)
	rec.RawResponse = raw
	if !rec.IstDekorativ {
		rec.IstDekorativ = rec.Bildtyp == "dekorativ" || strings.Contains(strings.ToLower(rec.AltText), "dekorativ")
	}
	return rec
}

// truncateAltText enforces MaxAltTextLength (counted in runes, so umlauts
// and other multi-byte characters in German alt-text aren't split mid-rune),
// cutting at the last sentence terminator past position 80 when one exists,
// else hard-cutting at 400.
func truncateAltText(s string) string {
	if utf8.RuneCountInString(s) <= MaxAltTextLength {
		return s
	}
	window := truncateRunes(s, MaxAltTextLength)
	best := -1
	for _, term := range []string{". ", "! ", "? "} {
		if idx := strings.LastIndex(window, term); idx > 80 && idx > best {
			best = idx + len(term)
		}
	}
	if best > 0 {
		return window[:best]
	}
	return window
}
