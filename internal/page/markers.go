package page

import (
	"errors"
	"fmt"
	"html"
	"strings"
)

// ErrMarkersNotFound is returned when a document lacks the start or the end marker.
var ErrMarkersNotFound = errors.New("markers not found")

// Markers delimit the region of a document that is rewritten on every run.
type Markers struct {
	Start string
	End   string
}

// DefaultMarkers are used unless configured otherwise.
var DefaultMarkers = Markers{
	Start: "<!-- PROJECTS:START -->",
	End:   "<!-- PROJECTS:END -->",
}

// Validate rejects empty or identical markers.
func (m Markers) Validate() error {
	if m.Start == "" || m.End == "" {
		return errors.New("start and end markers must not be empty")
	}
	if m.Start == m.End {
		return errors.New("start and end markers must differ")
	}
	return nil
}

// Splice replaces the first span running from m.Start to the nearest following
// m.End, both included, with the markers wrapped around the joined cards.
// Splicing the same cards twice gives the same document as splicing once.
func Splice(doc string, m Markers, cards []string) (string, error) {
	start := strings.Index(doc, m.Start)
	if start < 0 {
		return "", fmt.Errorf("%w: %q", ErrMarkersNotFound, m.Start)
	}
	end := strings.Index(doc[start+len(m.Start):], m.End)
	if end < 0 {
		return "", fmt.Errorf("%w: %q after %q", ErrMarkersNotFound, m.End, m.Start)
	}
	end += start + len(m.Start) + len(m.End)

	var b strings.Builder
	b.WriteString(doc[:start])
	b.WriteString(m.Start)
	b.WriteByte('\n')
	b.WriteString(strings.Join(cards, "\n"))
	b.WriteByte('\n')
	b.WriteString(m.End)
	b.WriteString(doc[end:])
	return b.String(), nil
}

const defaultDocument = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>@@NAME@@ | Projects</title>
    <style>
        body { font-family: system-ui, sans-serif; margin: 0; padding: 2rem; background: #0d1117; color: #c9d1d9; }
        h1 { text-align: center; }
        .grid { display: grid; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)); gap: 1rem; max-width: 1100px; margin: 0 auto; }
        .card { display: block; padding: 1rem 1.25rem; border: 1px solid #30363d; border-radius: 8px; background: #161b22; color: inherit; text-decoration: none; }
        .card:hover { border-color: #58a6ff; }
        .card h3 { margin: 0 0 .5rem; color: #58a6ff; }
        .tag { display: inline-block; padding: 2px 8px; border-radius: 12px; background: #1f6feb33; font-size: .8rem; }
    </style>
</head>
<body>
    <h1>@@NAME@@'s Projects</h1>
    <div class="grid">
@@MARKERS@@
    </div>
</body>
</html>
`

// DefaultDocument returns the built-in page used when no usable document exists.
// It already carries the markers, with nothing between them.
func DefaultDocument(user string, m Markers) string {
	return strings.NewReplacer(
		"@@NAME@@", html.EscapeString(user),
		"@@MARKERS@@", m.Start+"\n"+m.End,
	).Replace(defaultDocument)
}
