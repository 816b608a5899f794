package llm

import (
	"regexp"
	"strings"
)

var trailingComma = regexp.MustCompile(`,\s*([\]}])`)

// ExtractJSONArray finds the first balanced JSON array in model output.
// Markdown fences and trailing commas, the two most common ways providers
// mangle otherwise-valid JSON, are stripped first.
func ExtractJSONArray(s string) string {
	return extractBalanced(s, '[', ']')
}

// ExtractJSONObject finds the first balanced JSON object in model output.
func ExtractJSONObject(s string) string {
	return extractBalanced(s, '{', '}')
}

func extractBalanced(s string, open, close byte) string {
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	for _, fence := range []string{"```json", "```yaml", "```text", "```", "`json", "`"} {
		s = strings.ReplaceAll(s, fence, "")
	}

	start := strings.IndexByte(s, open)
	if start == -1 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		ch := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}
		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				candidate := strings.TrimSpace(s[start : i+1])
				return trailingComma.ReplaceAllString(candidate, "$1")
			}
		}
	}
	return ""
}
