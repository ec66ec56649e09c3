// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log"
	"strings"

	"github.com/naka-gawa/pages-portfolio/internal/config"
	"github.com/naka-gawa/pages-portfolio/internal/domain"
	"github.com/naka-gawa/pages-portfolio/internal/gateway"
	"github.com/naka-gawa/pages-portfolio/internal/page"
	"github.com/naka-gawa/pages-portfolio/internal/render"
	"golang.org/x/sync/errgroup"
)

// ErrDocumentNotFound is returned in strict mode when the index document does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// Generator is the use case for regenerating the portfolio page.
// It orchestrates fetching, filtering, rendering and assembling.
type Generator struct {
	fetcher gateway.Fetcher
	cfg     *config.Config
	logger  *log.Logger
}

// Result describes a regenerated document.
type Result struct {
	Document string
	// Projects is the number of cards written.
	Projects int
	// Reset is true when the built-in default document replaced the input.
	Reset bool
}

// NewGenerator creates a new Generator instance.
func NewGenerator(fetcher gateway.Fetcher, cfg *config.Config, logger *log.Logger) *Generator {
	return &Generator{
		fetcher: fetcher,
		cfg:     cfg,
		logger:  logger,
	}
}

// RenderPage builds a full page from tmpl. Every page of the user's repositories is
// fetched; forks are skipped. When a token is configured the profile is fetched
// alongside to fill {DISPLAY_NAME}.
func (g *Generator) RenderPage(ctx context.Context, tmpl string) (*Result, error) {
	user := g.cfg.RenderUser()
	g.logger.Printf("Usecase: Rendering portfolio for %s...\n", user)

	var repos []domain.Repository
	profile := &domain.Profile{Login: user}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		repos, err = g.fetcher.FetchRepositories(egCtx, user, gateway.ListOptions{AllPages: true})
		return err
	})
	if g.cfg.Token != "" {
		eg.Go(func() error {
			p, err := g.fetcher.FetchProfile(egCtx, user)
			if err != nil {
				// The display name is cosmetic; keep the login.
				g.logger.Printf("Usecase: Profile lookup failed, using login: %v\n", err)
				return nil
			}
			profile = p
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	projects := domain.Filter(repos, domain.PagesEnabled, domain.NotFork)
	g.logger.Printf("Usecase: Found %d repositories with GitHub Pages enabled.\n", len(projects))

	cards, err := render.NewCardRenderer(user, g.cardStyle(render.TopicStyle), g.cfg.FallbackLanguage).RenderAll(projects)
	if err != nil {
		return nil, err
	}

	doc, err := page.Fill(tmpl, page.Values{
		page.KeyUsername:     html.EscapeString(user),
		page.KeyDisplayName:  html.EscapeString(profile.DisplayName()),
		page.KeyProjectsGrid: strings.Join(cards, "\n"),
	}, page.KeyProjectsGrid)
	if err != nil {
		return nil, fmt.Errorf("template formatting error: %w", err)
	}

	g.logger.Println("Usecase: Rendering complete.")
	return &Result{Document: doc, Projects: len(cards)}, nil
}

// UpdateIndex rewrites the marker region of doc. exists reports whether doc was
// read from disk. A missing document, or one without both markers, is replaced by
// the built-in default unless the configuration is strict, in which case an error
// is returned and nothing should be written.
func (g *Generator) UpdateIndex(ctx context.Context, doc string, exists bool) (*Result, error) {
	owner := g.cfg.Owner()
	markers := g.cfg.Markers
	g.logger.Printf("Usecase: Updating index for %s...\n", owner)

	reset := false
	if !exists {
		if g.cfg.Strict {
			return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, g.cfg.IndexPath)
		}
		g.logger.Println("Usecase: Document not found, starting from the default template.")
		doc = page.DefaultDocument(owner, markers)
		reset = true
	}

	repos, err := g.fetcher.FetchRepositories(ctx, owner, gateway.ListOptions{Sort: "updated"})
	if err != nil {
		return nil, err
	}
	projects := domain.Filter(repos, domain.PagesEnabled, domain.NotUserSite(owner))
	g.logger.Printf("Usecase: Found %d repositories with GitHub Pages enabled.\n", len(projects))

	cards, err := render.NewCardRenderer(owner, g.cardStyle(render.LanguageStyle), g.cfg.FallbackLanguage).RenderAll(projects)
	if err != nil {
		return nil, err
	}

	out, err := page.Splice(doc, markers, cards)
	if errors.Is(err, page.ErrMarkersNotFound) && !g.cfg.Strict {
		g.logger.Printf("Usecase: %v; resetting to the default template.\n", err)
		reset = true
		out, err = page.Splice(page.DefaultDocument(owner, markers), markers, cards)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update %s: %w", g.cfg.IndexPath, err)
	}

	g.logger.Println("Usecase: Index update complete.")
	return &Result{Document: out, Projects: len(cards), Reset: reset}, nil
}

// cardStyle returns the configured card style, or def when none is set.
// config.Load has already rejected unknown style names.
func (g *Generator) cardStyle(def render.Style) render.Style {
	if g.cfg.CardStyle == "" {
		return def
	}
	if style, err := render.ParseStyle(g.cfg.CardStyle); err == nil {
		return style
	}
	return def
}
