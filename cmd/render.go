package cmd

import (
	"context"
	"fmt"

	"github.com/naka-gawa/pages-portfolio/internal/config"
	"github.com/naka-gawa/pages-portfolio/internal/page"
	"github.com/naka-gawa/pages-portfolio/internal/usecase"
	"github.com/spf13/cobra"
)

// renderFlagKeys maps render flags to configuration keys.
var renderFlagKeys = map[string]string{
	"template": "template",
	"output":   "output",
}

func newRenderCmd(a *app) *cobra.Command {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Fill a page template with cards for every Pages-enabled, non-fork repository",
		Long: `Fetches every page of the user's public repositories, keeps those with GitHub
Pages enabled that are not forks, and fills the template's {USERNAME},
{DISPLAY_NAME} and {projects_grid} placeholders. Literal braces in the template
must be doubled ({{ and }}).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			generator, cfg, err := a.newGenerator(cmd, renderFlagKeys)
			if err != nil {
				return err
			}
			return a.runRender(cmd.Context(), generator, cfg)
		},
	}
	renderCmd.Flags().StringP("template", "t", "template.html", "Page template")
	renderCmd.Flags().StringP("output", "o", "index.html", "File to write")
	return renderCmd
}

func (a *app) runRender(ctx context.Context, generator *usecase.Generator, cfg *config.Config) error {
	tmpl, exists, err := page.ReadDocument(cfg.TemplatePath)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("could not find %s", cfg.TemplatePath)
	}

	result, err := generator.RenderPage(ctx, tmpl)
	if err != nil {
		return err
	}

	if cfg.DryRun {
		a.ui.Document(result.Document)
		return nil
	}
	if err := page.WriteDocument(cfg.OutputPath, result.Document); err != nil {
		return err
	}
	a.ui.Success("Successfully generated %s with %d projects", cfg.OutputPath, result.Projects)
	return nil
}
