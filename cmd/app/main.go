package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/atotto/clipboard"
	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/torvik/snapvault/internal"
	"github.com/torvik/snapvault/internal/mcpserver"
	"github.com/torvik/snapvault/internal/recordstore"
	"github.com/torvik/snapvault/internal/storage"
	pkgconfig "github.com/torvik/snapvault/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// No config file means defaults: per-user vault, local cache db.
		return cfg, nil
	}
	if err := pkgconfig.Load(configPath, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

// localStore builds a record store for one-shot commands, logging to
// stderr so stdout stays clean for command output.
func localStore(cmd *cli.Command) (*recordstore.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))

	root, err := storage.ResolveRoot(cfg.Vault.Path, logger)
	if err != nil {
		return nil, fmt.Errorf("resolve vault root: %w", err)
	}
	files, err := storage.NewFS(root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return recordstore.New(files, nil, logger), nil
}

func capture(ctx context.Context, cmd *cli.Command) error {
	store, err := localStore(cmd)
	if err != nil {
		return err
	}

	text, err := clipboard.ReadAll()
	if err != nil {
		return fmt.Errorf("read clipboard: %w", err)
	}
	if note := cmd.String("note"); note != "" {
		text = note
	}
	if text == "" {
		return fmt.Errorf("clipboard is empty and no --note given")
	}

	rec, err := store.CreateWithClipboardImage(ctx, text, nil)
	if err != nil {
		return fmt.Errorf("create record: %w", err)
	}
	fmt.Println(rec.MetadataPath)
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	store, err := localStore(cmd)
	if err != nil {
		return err
	}
	return mcpserver.New(store).ServeStdio()
}

func main() {
	cmd := &cli.Command{
		Name:   "snapvault",
		Usage:  "Local-first capture vault: screenshots, clipboard snapshots and notes stored as flat JSON records",
		Action: serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API server",
				Action: serve,
			},
			{
				Name:   "capture",
				Usage:  "Save the current clipboard text as a new record",
				Action: capture,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "note",
						Aliases: []string{"n"},
						Usage:   "Note text to use instead of the clipboard content",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: mcp,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
