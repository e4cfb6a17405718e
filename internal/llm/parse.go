package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseStringArray extracts a JSON string array from raw model output.
// Models wrap JSON in Markdown fences or prepend prose, so the parser
// strips fences and scans for the first balanced [...] before unmarshaling.
func ParseStringArray(raw string) ([]string, error) {
	fragment, ok := extractArray(raw)
	if !ok {
		return nil, fmt.Errorf("llm: no JSON array in output")
	}
	var out []string
	if err := json.Unmarshal([]byte(fragment), &out); err != nil {
		return nil, fmt.Errorf("llm: unmarshal array: %w", err)
	}
	return out, nil
}

// extractArray returns the first balanced top-level [...] in s, ignoring
// brackets inside JSON strings.
func extractArray(s string) (string, bool) {
	s = stripFences(s)
	start := strings.IndexByte(s, '[')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// stripFences removes leading/trailing Markdown code fences like ```json.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
