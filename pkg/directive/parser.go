package directive

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ExtractBracedPayload returns the substring from the first top-level
// '{' to its matching '}', tracking nested brace depth. Prose before
// and after the payload is ignored. Returns "" and false when no
// balanced top-level pair exists.
func ExtractBracedPayload(text string) (string, bool) {
	depth := 0
	start := -1
	for i, r := range text {
		switch r {
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// rawDirective holds the loosely-typed fields before coercion.
// Score and Item vary in type across model outputs, so they are
// decoded as any and coerced afterwards.
type rawDirective struct {
	Image    string `json:"image"`
	Answer   string `json:"answer"`
	Score    any    `json:"score"`
	Action   string `json:"action"`
	Item     any    `json:"item"`
	Location string `json:"location"`
}

// ParseInto extracts the braced payload from text and unmarshals it
// into v after normalization. On failure the returned error is always
// a *ParseFailure carrying the raw text.
func ParseInto(text string, v any) error {
	payload, ok := ExtractBracedPayload(text)
	if !ok {
		return &ParseFailure{RawText: text, Reason: "no balanced braced payload"}
	}
	if err := json.Unmarshal([]byte(normalizeLiteral(payload)), v); err != nil {
		return &ParseFailure{RawText: text, Reason: err.Error()}
	}
	return nil
}

// ParseListInto is ParseInto for list-shaped payloads, used where the
// model is asked for an array literal instead of an object.
func ParseListInto(text string, v any) error {
	payload, ok := extractBracketedList(text)
	if !ok {
		return &ParseFailure{RawText: text, Reason: "no balanced bracketed payload"}
	}
	if err := json.Unmarshal([]byte(normalizeLiteral(payload)), v); err != nil {
		return &ParseFailure{RawText: text, Reason: err.Error()}
	}
	return nil
}

// extractBracketedList mirrors ExtractBracedPayload for '[' / ']'.
func extractBracketedList(text string) (string, bool) {
	depth := 0
	start := -1
	for i, r := range text {
		switch r {
		case '[':
			if depth == 0 {
				start = i
			}
			depth++
		case ']':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// Parse recovers a ScenarioDirective from raw model output. The text
// may contain surrounding commentary, single-quoted strings, Python
// literal tokens and trailing commas; all are tolerated. On failure
// the returned error is always a *ParseFailure carrying the raw text.
//
// Defaults for missing fields: action no_action, no items, score 0,
// answer falls back to the image description, location stays empty
// (callers keep their current location).
func Parse(text string) (*ScenarioDirective, error) {
	var raw rawDirective
	if err := ParseInto(text, &raw); err != nil {
		return nil, err
	}

	d := &ScenarioDirective{
		Image:    raw.Image,
		Answer:   raw.Answer,
		Score:    coerceScore(raw.Score),
		Action:   ParseAction(raw.Action),
		Items:    coerceItems(raw.Item),
		Location: strings.TrimSpace(raw.Location),
	}
	if d.Answer == "" {
		d.Answer = d.Image
	}
	return d, nil
}

// normalizeLiteral rewrites a near-JSON literal into strict JSON:
// single-quoted strings become double-quoted, Python True/False/None
// become their JSON forms, and trailing commas are dropped.
func normalizeLiteral(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	runes := []rune(s)
	inDouble := false
	inSingle := false
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inDouble:
			b.WriteRune(r)
			if r == '\\' && i+1 < len(runes) {
				i++
				b.WriteRune(runes[i])
			} else if r == '"' {
				inDouble = false
			}
		case inSingle:
			switch {
			case r == '\\' && i+1 < len(runes) && runes[i+1] == '\'':
				b.WriteRune('\'')
				i++
			case r == '\\' && i+1 < len(runes):
				b.WriteRune(r)
				i++
				b.WriteRune(runes[i])
			case r == '\'':
				b.WriteRune('"')
				inSingle = false
			case r == '"':
				b.WriteString(`\"`)
			default:
				b.WriteRune(r)
			}
		case r == '"':
			inDouble = true
			b.WriteRune(r)
		case r == '\'':
			inSingle = true
			b.WriteRune('"')
		case r == ',':
			// Drop the comma if the next non-space rune closes a scope.
			j := i + 1
			for j < len(runes) && (runes[j] == ' ' || runes[j] == '\n' || runes[j] == '\t' || runes[j] == '\r') {
				j++
			}
			if j < len(runes) && (runes[j] == '}' || runes[j] == ']') {
				continue
			}
			b.WriteRune(r)
		default:
			atWordStart := i == 0 || !followedByWordRune(runes[i-1:], 0)
			if tok, n := matchBareToken(runes[i:]); n > 0 && atWordStart {
				b.WriteString(tok)
				i += n - 1
				continue
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// matchBareToken recognizes Python literal tokens at the start of rs
// and returns their JSON spelling with the consumed length.
func matchBareToken(rs []rune) (string, int) {
	for _, t := range []struct{ py, js string }{
		{"True", "true"},
		{"False", "false"},
		{"None", "null"},
	} {
		if hasRunePrefix(rs, t.py) && !followedByWordRune(rs, len(t.py)) {
			return t.js, len(t.py)
		}
	}
	return "", 0
}

func hasRunePrefix(rs []rune, prefix string) bool {
	pr := []rune(prefix)
	if len(rs) < len(pr) {
		return false
	}
	for i, r := range pr {
		if rs[i] != r {
			return false
		}
	}
	return true
}

func followedByWordRune(rs []rune, n int) bool {
	if n >= len(rs) {
		return false
	}
	r := rs[n]
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// coerceScore accepts a JSON number or a numeric string. Anything
// else scores zero.
func coerceScore(v any) int {
	switch s := v.(type) {
	case float64:
		return int(s)
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(strings.TrimPrefix(s, "+")))
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}

// CoerceBool accepts a JSON bool or a bool-like string token,
// falling back to def for anything else.
func CoerceBool(v any, def bool) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "yes":
			return true
		case "false", "no":
			return false
		}
	}
	return def
}

// coerceItems accepts a single item name or a list of names. The
// "no_item"/"no_items" placeholder tokens yield an empty list.
func coerceItems(v any) []string {
	appendName := func(items []string, name string) []string {
		name = strings.TrimSpace(name)
		switch strings.ToLower(name) {
		case "", "no_item", "no_items", "none":
			return items
		}
		return append(items, name)
	}

	var items []string
	switch t := v.(type) {
	case string:
		// Models sometimes emit the list as a bracketed string,
		// e.g. "[rope, lantern]" or the "[no_items]" placeholder.
		t = strings.TrimSpace(t)
		if strings.HasPrefix(t, "[") && strings.HasSuffix(t, "]") {
			for _, part := range strings.Split(t[1:len(t)-1], ",") {
				items = appendName(items, strings.Trim(part, `'" `))
			}
			break
		}
		items = appendName(items, t)
	case []any:
		for _, e := range t {
			if name, ok := e.(string); ok {
				items = appendName(items, name)
			}
		}
	}
	return items
}
