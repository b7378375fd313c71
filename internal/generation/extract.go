package generation

import "errors"

// ErrNoJSONArray indicates the model reply contained no parseable JSON array.
var ErrNoJSONArray = errors.New("no JSON array found in response")

// extractJSONArray locates the first bracket-matched JSON array substring in
// free text. Models routinely wrap their JSON in prose or markdown fences, so
// the scan starts at the first '[' and tracks bracket depth, skipping string
// literals and escapes.
func extractJSONArray(text string) (string, error) {
	start := -1
	for i, r := range text {
		if r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", ErrNoJSONArray
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]

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
				return text[start : i+1], nil
			}
		}
	}
	return "", ErrNoJSONArray
}
