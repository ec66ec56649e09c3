package cmd

import (
	"context"

	"github.com/naka-gawa/pages-portfolio/internal/config"
	"github.com/naka-gawa/pages-portfolio/internal/page"
	"github.com/naka-gawa/pages-portfolio/internal/usecase"
	"github.com/spf13/cobra"
)

// updateFlagKeys maps update flags to configuration keys.
var updateFlagKeys = map[string]string{
	"index":        "index",
	"strict":       "strict",
	"start-marker": "start_marker",
	"end-marker":   "end_marker",
}

func newUpdateCmd(a *app) *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Rewrite the marked project list inside an existing index.html",
		Long: `Fetches the 100 most recently updated public repositories of the owner, keeps
those with GitHub Pages enabled except the owner's own <owner>.github.io site, and
replaces everything between the start and end markers of the index page.

A missing page, or one without both markers, is replaced by a built-in default page
unless --strict is given, in which case the file is left untouched and the command fails.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			generator, cfg, err := a.newGenerator(cmd, updateFlagKeys)
			if err != nil {
				return err
			}
			return a.runUpdate(cmd.Context(), generator, cfg)
		},
	}
	flags := updateCmd.Flags()
	flags.StringP("index", "i", "index.html", "Page to update in place")
	flags.Bool("strict", false, "Fail instead of falling back to the default page")
	flags.String("start-marker", page.DefaultMarkers.Start, "Start of the generated region")
	flags.String("end-marker", page.DefaultMarkers.End, "End of the generated region")
	return updateCmd
}

func (a *app) runUpdate(ctx context.Context, generator *usecase.Generator, cfg *config.Config) error {
	doc, exists, err := page.ReadDocument(cfg.IndexPath)
	if err != nil {
		return err
	}

	result, err := generator.UpdateIndex(ctx, doc, exists)
	if err != nil {
		return err
	}
	if result.Reset {
		a.ui.Warning("%s was missing or had no markers; started from the default page", cfg.IndexPath)
	}

	if cfg.DryRun {
		a.ui.Document(result.Document)
		return nil
	}
	if err := page.WriteDocument(cfg.IndexPath, result.Document); err != nil {
		return err
	}
	a.ui.Success("Index updated successfully with %d projects", result.Projects)
	return nil
}
