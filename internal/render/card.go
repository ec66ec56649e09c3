// Package render turns repositories into HTML card fragments.
//
// Every value taken from the GitHub API is escaped by html/template before it
// reaches the markup, so a description such as "<b>wip</b>" is shown literally.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"unicode"

	"github.com/naka-gawa/pages-portfolio/internal/domain"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NoDescription is shown when a repository has no description.
const NoDescription = "No description provided."

// DefaultLanguageTag is shown by LanguageStyle cards when GitHub reports no language.
const DefaultLanguageTag = "Project"

// Style selects the card layout.
type Style int

const (
	// TopicStyle shows the raw repository name and one tag per topic.
	TopicStyle Style = iota
	// LanguageStyle shows a title-cased name and a single language tag.
	LanguageStyle
)

// ParseStyle maps "topics" and "language" to a Style.
func ParseStyle(s string) (Style, error) {
	switch strings.ToLower(s) {
	case "topics", "topic":
		return TopicStyle, nil
	case "language", "lang":
		return LanguageStyle, nil
	}
	return 0, fmt.Errorf("unknown card style %q", s)
}

var cardTemplates = map[Style]*template.Template{
	TopicStyle: template.Must(template.New("topics").Parse(`<a href="{{.Link}}" target="_blank" class="card">
    <h3>{{.Title}}</h3>
    <p>{{.Description}}</p>
    <div style="display: flex; flex-wrap: wrap; gap: 5px;">
        {{- range .Tags}}
        <span class="tag">{{.}}</span>
        {{- end}}
    </div>
</a>`)),
	LanguageStyle: template.Must(template.New("language").Parse(`<a href="{{.Link}}" class="card">
    <h3>{{.Title}}</h3>
    <p>{{.Description}}</p>
    {{- range .Tags}}
    <span class="tag">{{.}}</span>
    {{- end}}
</a>`)),
}

type card struct {
	Link        string
	Title       string
	Description string
	Tags        []string
}

// CardRenderer renders repositories owned by a single user.
type CardRenderer struct {
	user             string
	style            Style
	fallbackLanguage string
	titleCaser       cases.Caser
}

// NewCardRenderer returns a renderer for user's repositories. An empty
// fallbackLanguage means DefaultLanguageTag.
func NewCardRenderer(user string, style Style, fallbackLanguage string) *CardRenderer {
	if fallbackLanguage == "" {
		fallbackLanguage = DefaultLanguageTag
	}
	return &CardRenderer{
		user:             user,
		style:            style,
		fallbackLanguage: fallbackLanguage,
		titleCaser:       cases.Title(language.Und),
	}
}

// Render produces the card fragment for one repository.
func (c *CardRenderer) Render(repo domain.Repository) (string, error) {
	data := card{
		Link:        domain.PagesURL(c.user, repo.Name),
		Title:       repo.Name,
		Description: repo.GetDescription(),
	}
	if data.Description == "" {
		data.Description = NoDescription
	}

	tmpl := cardTemplates[TopicStyle]
	switch c.style {
	case LanguageStyle:
		tmpl = cardTemplates[LanguageStyle]
		data.Title = c.title(strings.ReplaceAll(repo.Name, "-", " "))
		lang := repo.GetLanguage()
		if lang == "" {
			lang = c.fallbackLanguage
		}
		data.Tags = []string{lang}
	default:
		data.Tags = repo.Topics
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render card for %s: %w", repo.Name, err)
	}
	return buf.String(), nil
}

// title capitalizes the first letter of every run of letters and lowercases the
// rest, so "my_site", "docs.v2" and "web3app" become "My_Site", "Docs.V2" and
// "Web3App". Everything that is not a letter separates words.
func (c *CardRenderer) title(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for s != "" {
		end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
		if end == 0 {
			end = strings.IndexFunc(s, unicode.IsLetter)
			if end < 0 {
				end = len(s)
			}
			b.WriteString(s[:end])
			s = s[end:]
			continue
		}
		if end < 0 {
			end = len(s)
		}
		b.WriteString(c.titleCaser.String(s[:end]))
		s = s[end:]
	}
	return b.String()
}

// RenderAll renders every repository, preserving order.
func (c *CardRenderer) RenderAll(repos []domain.Repository) ([]string, error) {
	cards := make([]string, 0, len(repos))
	for _, r := range repos {
		html, err := c.Render(r)
		if err != nil {
			return nil, err
		}
		cards = append(cards, html)
	}
	return cards, nil
}
