package triage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var codeBlockRegex = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// ParseItems extracts a JSON array of items from free-form text such as a
// clipboard paste or an exported file. Markdown code fences are accepted.
// Items are only decoded here; missing fields are reported per item when
// they are classified.
func ParseItems(content string) ([]Item, error) {
	jsonStr := extractJSONArray(content)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON array found in input")
	}

	var items []Item
	if err := json.Unmarshal([]byte(jsonStr), &items); err != nil {
		return nil, fmt.Errorf("failed to parse items: %w", err)
	}
	return items, nil
}

// extractJSONArray returns the last JSON array in content, preferring fenced
// code blocks
func extractJSONArray(content string) string {
	content = strings.TrimSpace(content)

	var found string
	for _, m := range codeBlockRegex.FindAllStringSubmatch(content, -1) {
		if block := strings.TrimSpace(m[1]); isJSONArray(block) {
			found = block
		}
	}
	if found != "" {
		return found
	}

	for start := 0; start < len(content); {
		idx := strings.IndexByte(content[start:], '[')
		if idx < 0 {
			break
		}
		idx += start
		end := matchingBracket(content, idx)
		if end < 0 {
			break
		}
		found = content[idx : end+1]
		start = end + 1
	}
	return found
}

// matchingBracket finds the index closing the array opened at open, skipping
// brackets inside JSON strings
func matchingBracket(content string, open int) int {
	depth := 0
	inString := false
	for i := open; i < len(content); i++ {
		ch := content[i]
		if inString {
			switch ch {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case '[', '{':
			depth++
		case ']', '}':
			depth--
			if depth == 0 {
				if ch == ']' {
					return i
				}
				return -1
			}
		}
	}
	return -1
}

func isJSONArray(s string) bool {
	s = strings.TrimSpace(s)
	return strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")
}
