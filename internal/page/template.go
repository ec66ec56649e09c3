// Package page assembles the final HTML document from rendered cards.
//
// Two strategies exist. Fill treats a template as a format string with {KEY}
// placeholders. Splice rewrites only the region between a start and an end marker
// of an existing document.
package page

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder names understood by page templates.
const (
	KeyUsername     = "USERNAME"
	KeyProjectsGrid = "projects_grid"
	KeyDisplayName  = "DISPLAY_NAME"
)

var (
	// ErrMissingKey is returned when a template references a placeholder with no value.
	ErrMissingKey = errors.New("template references unknown key")
	// ErrMissingPlaceholder is returned when a required placeholder does not appear in the template.
	ErrMissingPlaceholder = errors.New("template is missing required placeholder")
	// ErrMalformedTemplate is returned for unbalanced braces.
	ErrMalformedTemplate = errors.New("malformed template")
)

// Values maps placeholder names to their replacement text.
type Values map[string]string

// Fill replaces every {KEY} in tmpl with values[KEY]. Literal braces are written
// as {{ and }}. Every name in required must occur at least once.
func Fill(tmpl string, values Values, required ...string) (string, error) {
	var b strings.Builder
	b.Grow(len(tmpl))
	seen := make(map[string]bool, len(values))

	for i := 0; i < len(tmpl); {
		switch c := tmpl[i]; c {
		case '{':
			if i+1 < len(tmpl) && tmpl[i+1] == '{' {
				b.WriteByte('{')
				i += 2
				continue
			}
			end := strings.IndexByte(tmpl[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unclosed '{' at offset %d", ErrMalformedTemplate, i)
			}
			key := tmpl[i+1 : i+1+end]
			v, ok := values[key]
			if !ok {
				return "", fmt.Errorf("%w: %q", ErrMissingKey, key)
			}
			seen[key] = true
			b.WriteString(v)
			i += end + 2
		case '}':
			if i+1 < len(tmpl) && tmpl[i+1] == '}' {
				b.WriteByte('}')
				i += 2
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrMalformedTemplate, i)
		default:
			b.WriteByte(c)
			i++
		}
	}

	for _, key := range required {
		if !seen[key] {
			return "", fmt.Errorf("%w: {%s}", ErrMissingPlaceholder, key)
		}
	}
	return b.String(), nil
}
