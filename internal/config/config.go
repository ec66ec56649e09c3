// Package config builds the run configuration from flags, environment and an
// optional config file. The result is created once at startup and passed down.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/naka-gawa/pages-portfolio/internal/page"
	"github.com/naka-gawa/pages-portfolio/internal/render"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// ErrMissingUser is returned when no GitHub user can be determined.
var ErrMissingUser = errors.New("GitHub user is required (set --user, GITHUB_ACTOR or GITHUB_REPOSITORY)")

// Run modes for the scheduler.
const (
	ModeRender = "render"
	ModeUpdate = "update"
)

// Config holds the application configuration.
type Config struct {
	// User is set explicitly (flag, PORTFOLIO_USER or config file) and wins over
	// anything derived from the GitHub Actions environment.
	User string
	// Actor is GITHUB_ACTOR.
	Actor      string
	Token      string
	Repository string
	APIURL     string

	TemplatePath string
	OutputPath   string
	IndexPath    string

	Markers          page.Markers
	Strict           bool
	FallbackLanguage string
	// CardStyle overrides the card layout of both flows when set ("topics" or "language").
	CardStyle string
	DryRun    bool

	CronSchedule string
	Mode         string
	RunOnStartup bool
}

// SetDefaults registers the default value of every key and binds the
// environment variables GitHub Actions provides.
func SetDefaults(v *viper.Viper) {
	v.SetEnvPrefix("PORTFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("user", "PORTFOLIO_USER")
	_ = v.BindEnv("actor", "GITHUB_ACTOR")
	_ = v.BindEnv("token", "PORTFOLIO_TOKEN", "GITHUB_TOKEN", "GH_TOKEN")
	_ = v.BindEnv("repository", "PORTFOLIO_REPOSITORY", "GITHUB_REPOSITORY")

	v.SetDefault("api_url", "")
	v.SetDefault("template", "template.html")
	v.SetDefault("output", "index.html")
	v.SetDefault("index", "index.html")
	v.SetDefault("start_marker", page.DefaultMarkers.Start)
	v.SetDefault("end_marker", page.DefaultMarkers.End)
	v.SetDefault("strict", false)
	v.SetDefault("fallback_language", "Project")
	v.SetDefault("card_style", "")
	v.SetDefault("dry_run", false)
	v.SetDefault("cron", "0 * * * *")
	v.SetDefault("mode", ModeUpdate)
	v.SetDefault("run_on_startup", false)
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		User:       strings.TrimSpace(v.GetString("user")),
		Actor:      strings.TrimSpace(v.GetString("actor")),
		Token:      strings.TrimSpace(v.GetString("token")),
		Repository: strings.TrimSpace(v.GetString("repository")),
		APIURL:     v.GetString("api_url"),

		TemplatePath: v.GetString("template"),
		OutputPath:   v.GetString("output"),
		IndexPath:    v.GetString("index"),

		Markers: page.Markers{
			Start: v.GetString("start_marker"),
			End:   v.GetString("end_marker"),
		},
		Strict:           v.GetBool("strict"),
		FallbackLanguage: v.GetString("fallback_language"),
		CardStyle:        strings.TrimSpace(v.GetString("card_style")),
		DryRun:           v.GetBool("dry_run"),

		CronSchedule: v.GetString("cron"),
		Mode:         strings.ToLower(v.GetString("mode")),
		RunOnStartup: v.GetBool("run_on_startup"),
	}

	if cfg.Owner() == "" {
		return nil, ErrMissingUser
	}
	if cfg.CardStyle != "" {
		if _, err := render.ParseStyle(cfg.CardStyle); err != nil {
			return nil, err
		}
	}
	if err := cfg.Markers.Validate(); err != nil {
		return nil, fmt.Errorf("invalid markers: %w", err)
	}
	return cfg, nil
}

// Owner is the account the update flow lists: the explicit user, else the owner
// part of Repository ("owner/name"), else Actor.
func (c *Config) Owner() string {
	if c.User != "" {
		return c.User
	}
	if owner, _, _ := strings.Cut(c.Repository, "/"); owner != "" {
		return owner
	}
	return c.Actor
}

// RenderUser is the account whose portfolio the render flow builds: the explicit
// user, else Actor, else the repository owner.
func (c *Config) RenderUser() string {
	if c.User != "" {
		return c.User
	}
	if c.Actor != "" {
		return c.Actor
	}
	return c.Owner()
}

// ValidateSchedule checks the cron expression and mode used by the scheduler.
func (c *Config) ValidateSchedule() error {
	if _, err := cron.ParseStandard(c.CronSchedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", c.CronSchedule, err)
	}
	if c.Mode != ModeRender && c.Mode != ModeUpdate {
		return fmt.Errorf("invalid mode %q: want %q or %q", c.Mode, ModeRender, ModeUpdate)
	}
	return nil
}
