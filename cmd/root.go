// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/naka-gawa/pages-portfolio/internal/config"
	"github.com/naka-gawa/pages-portfolio/internal/gateway"
	"github.com/naka-gawa/pages-portfolio/internal/output"
	"github.com/naka-gawa/pages-portfolio/internal/usecase"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every command shares: the viper instance flags are bound to,
// and the UI for status lines.
type app struct {
	v  *viper.Viper
	ui *output.UI
}

// newRootCmd builds the command tree. Each call returns independent flags and
// configuration.
func newRootCmd(ui *output.UI) *cobra.Command {
	a := &app{v: viper.New(), ui: ui}
	config.SetDefaults(a.v)

	rootCmd := &cobra.Command{
		Use:   "pages-portfolio",
		Short: "Regenerate an HTML portfolio of a user's GitHub Pages sites.",
		Long: `pages-portfolio lists a GitHub user's public repositories that publish a
GitHub Pages site and writes them as cards into an HTML page, either by filling
a template (render) or by rewriting the marked region of an existing page (update).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.readConfigFile(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolP("verbose", "v", false, "Enable verbose/debug logging")
	flags.String("config", "", "Config file (YAML)")
	flags.StringP("user", "u", "", "GitHub user (default $GITHUB_ACTOR, or the owner in $GITHUB_REPOSITORY)")
	flags.String("api-url", "", "GitHub Enterprise base URL")
	flags.BoolP("dry-run", "n", false, "Print the generated page instead of writing it")
	flags.String("fallback-language", "Project", "Tag shown when a repository has no language")
	flags.String("card-style", "", "Card layout, topics or language (default: topics for render, language for update)")
	_ = a.v.BindPFlag("user", flags.Lookup("user"))
	_ = a.v.BindPFlag("api_url", flags.Lookup("api-url"))
	_ = a.v.BindPFlag("dry_run", flags.Lookup("dry-run"))
	_ = a.v.BindPFlag("fallback_language", flags.Lookup("fallback-language"))
	_ = a.v.BindPFlag("card_style", flags.Lookup("card-style"))

	rootCmd.AddCommand(newRenderCmd(a), newUpdateCmd(a), newScheduleCmd(a))
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui := output.New()
	if err := newRootCmd(ui).ExecuteContext(ctx); err != nil {
		ui.Error("%v", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) readConfigFile(cmd *cobra.Command) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	if cfgFile == "" {
		return nil
	}
	a.v.SetConfigFile(cfgFile)
	if err := a.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
	}
	return nil
}

// newLogger returns a logger that discards everything unless --verbose is set.
func newLogger(cmd *cobra.Command) *log.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")
	logger := log.New(io.Discard, "", log.LstdFlags)
	if verbose {
		logger.SetOutput(os.Stderr)
	}
	return logger
}

// newGenerator binds the running command's flags, loads the configuration and
// injects the GitHub gateway into the use case. Subcommands share key names, so
// flags are bound here rather than at construction time.
func (a *app) newGenerator(cmd *cobra.Command, flagKeys map[string]string) (*usecase.Generator, *config.Config, error) {
	for name, key := range flagKeys {
		if err := a.v.BindPFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return nil, nil, fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd)
	githubGateway, err := gateway.NewGitHubGateway(cfg.Token, cfg.APIURL, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create GitHub gateway: %w", err)
	}
	return usecase.NewGenerator(githubGateway, cfg, logger), cfg, nil
}
