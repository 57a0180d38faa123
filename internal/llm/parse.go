package llm

import (
	"encoding/json"
	"fmt"
)

// ParseRenameMapping extracts a {old: new} mapping from raw model output.
// Models occasionally wrap the JSON in prose or code fences, so the raw text
// is scanned for top-level JSON object candidates and the candidate that
// covers the most requested names wins.
func ParseRenameMapping(raw string, names []string) (map[string]string, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}

	var best map[string]string
	bestHits := -1
	for _, candidate := range findJSONCandidates(raw) {
		var m map[string]string
		if err := json.Unmarshal([]byte(candidate), &m); err != nil {
			continue
		}
		hits := 0
		for k := range m {
			if want[k] {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = m, hits
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no JSON object with string values in model output (%d bytes)", len(raw))
	}
	return best, nil
}

// findJSONCandidates scans the input for top-level JSON object candidates
// with a byte-level state machine that skips over strings and escapes. ASCII
// delimiters are safe to match bytewise: UTF-8 continuation bytes never
// collide with them.
func findJSONCandidates(s string) []string {
	var candidates []string
	depth := 0
	start := -1
	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]
		if escape {
			escape = false
			continue
		}
		if inString {
			if b == '\\' {
				escape = true
			} else if b == '"' {
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start != -1 {
					candidates = append(candidates, s[start:i+1])
					start = -1
				}
			}
		}
	}
	return candidates
}
