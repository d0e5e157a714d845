package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/bulldra/hatena-sync/internal"
	"github.com/bulldra/hatena-sync/internal/output"
	"github.com/bulldra/hatena-sync/internal/reconcile"
	pkgconfig "github.com/bulldra/hatena-sync/pkg/config"
)

// setup loads configuration and wires the application for one command
// invocation. A missing config file at the default path is fine; an
// explicitly requested one is not.
func setup(cmd *cli.Command) (*internal.App, error) {
	cfg := internal.NewDefaultConfig()
	configPath := cmd.String("config")
	if cmd.IsSet("config") {
		if err := pkgconfig.Load(configPath, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if err := pkgconfig.LoadOptional(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	mode, err := output.ParseColorMode(cmd.String("color"))
	if err != nil {
		return nil, err
	}
	printer := output.NewPrinter(output.Options{
		ColorMode: mode,
		Quiet:     cmd.Bool("quiet"),
	})

	return internal.NewApp(
		internal.WithConfig(cfg),
		internal.WithPrinter(printer),
	)
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "new",
		Usage:     "Scaffold an entry in the feature stage",
		ArgsUsage: "<identifier>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "title",
				Usage: "Entry title (defaults to the identifier)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			identifier := cmd.Args().First()
			if identifier == "" {
				return fmt.Errorf("usage: hatena-sync new <identifier>")
			}
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunNew(identifier, cmd.String("title"))
		},
	}
}

func syncCommand() *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile the vault with the remote blog",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "direction",
				Aliases: []string{"d"},
				Usage:   "Sync direction: both, push, pull",
				Value:   "both",
			},
			&cli.StringFlag{
				Name:    "entry",
				Aliases: []string{"e"},
				Usage:   "Reconcile a single entry by identifier",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			direction, err := reconcile.ParseDirection(cmd.String("direction"))
			if err != nil {
				return err
			}
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunSync(ctx, direction, cmd.String("entry"))
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List vault entries by lifecycle stage",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunList()
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Full-text search over synced entry bodies",
		ArgsUsage: "<query>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			query := cmd.Args().First()
			if query == "" {
				return fmt.Errorf("usage: hatena-sync search <query>")
			}
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunSearch(query)
		},
	}
}

func archiveCommand() *cli.Command {
	return &cli.Command{
		Name:      "archive",
		Usage:     "Move an entry to the archived stage, excluding it from sync",
		ArgsUsage: "<identifier>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			identifier := cmd.Args().First()
			if identifier == "" {
				return fmt.Errorf("usage: hatena-sync archive <identifier>")
			}
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunArchive(identifier)
		},
	}
}

func previewCommand() *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Serve the vault as rendered HTML with live reload",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunPreview(ctx)
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Watch the vault and push entries as they change",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunWatch(ctx)
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve vault tools to MCP clients over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			app, err := setup(cmd)
			if err != nil {
				return err
			}
			defer app.Close()
			return app.RunMCP()
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "hatena-sync",
		Usage: "Synchronize a local Markdown vault with a remote blog",
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
				Name:  "color",
				Usage: "Color output: auto, always, never",
				Value: "auto",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Suppress informational output",
			},
		},
		Commands: []*cli.Command{
			newCommand(),
			syncCommand(),
			listCommand(),
			searchCommand(),
			archiveCommand(),
			previewCommand(),
			watchCommand(),
			mcpCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
