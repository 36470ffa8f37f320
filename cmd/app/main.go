package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/koinecards/internal"
	pkgconfig "github.com/starford/koinecards/pkg/config"
)

// overrides are the root flags that replace config values.
type overrides struct {
	deckURL string
	dir     string
	noCache bool
}

func overridesFrom(cmd *cli.Command) overrides {
	return overrides{
		deckURL: cmd.String("deck"),
		dir:     cmd.String("dir"),
		noCache: cmd.Bool("no-cache"),
	}
}

// loadConfig reads configPath over the defaults, applies the flag
// overrides and validates the result once.
func loadConfig(configPath string, o overrides) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.ReadOrDefault(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if o.deckURL != "" {
		cfg.Deck.URL = o.deckURL
	}
	if o.dir != "" {
		cfg.Deck.Dir = o.dir
	}
	if o.noCache {
		cfg.Cache.Enabled = false
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// action adapts an application entry point to a cli action.
func action(name string, run func(ctx context.Context, cmd *cli.Command, opts ...internal.Option) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		cfg, err := loadConfig(cmd.String("config"), overridesFrom(cmd))
		if err != nil {
			return err
		}
		if err := run(ctx, cmd, internal.WithConfig(cfg)); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		return nil
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "koinecards",
		Usage:   "Flashcard viewer for decks of plain-text cards, with an offline cache",
		Version: internal.Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "deck",
				Usage:   "Deck base URL (overrides deck.url)",
				Sources: cli.EnvVars("KOINECARDS_DECK_URL"),
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "Local cards directory (overrides deck.dir)",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the offline cache",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve the web viewer and JSON API",
				Action: action("serve", func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.Serve(ctx, opts...)
				}),
			},
			{
				Name:  "view",
				Usage: "Browse the deck in the terminal",
				Action: action("view", func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.View(ctx, opts...)
				}),
			},
			{
				Name:  "mcp",
				Usage: "Expose the deck to MCP clients over stdio",
				Action: action("mcp", func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.MCP(ctx, opts...)
				}),
			},
			{
				Name:  "manifest",
				Usage: "Write index.json for the local cards directory",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Keep the manifest current while cards change",
					},
				},
				Action: action("manifest", func(ctx context.Context, cmd *cli.Command, opts ...internal.Option) error {
					return internal.Manifest(ctx, cmd.Bool("watch"), opts...)
				}),
			},
			{
				Name:  "cache",
				Usage: "List the offline cache stores",
				Action: action("cache", func(ctx context.Context, _ *cli.Command, opts ...internal.Option) error {
					return internal.Cache(ctx, opts...)
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
