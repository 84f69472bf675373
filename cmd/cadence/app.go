package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/jgcallah/cadence/internal"
	"github.com/jgcallah/cadence/internal/index"
	"github.com/jgcallah/cadence/internal/storage"
	"github.com/jgcallah/cadence/internal/taskservice"
	"github.com/jgcallah/cadence/internal/vault"
	pkgconfig "github.com/jgcallah/cadence/pkg/config"
)

const defaultConfigFile = "config/config.yaml"

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "cadence",
		Usage: "Task lifecycle for date-organized Markdown notes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: defaultConfigFile,
				Value:       defaultConfigFile,
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
			&cli.StringFlag{
				Name:    "vault",
				Usage:   "Vault directory (overrides vault.path from the config file)",
				Sources: cli.EnvVars("CADENCE_VAULT"),
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print results as JSON",
			},
		},
		Commands: []*cli.Command{
			initCommand(),
			serveCommand(),
			mcpCommand(),
			tasksCommand(),
		},
	}
}

// loadConfig reads the application config. A missing file is only an error
// when it was asked for explicitly.
func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	root := cmd.Root()
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.Load(root.String("config"), cfg); err != nil {
		if !errors.Is(err, fs.ErrNotExist) || root.IsSet("config") {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}
	if v := root.String("vault"); v != "" {
		cfg.Vault.Path = v
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the REST API, SSE stream and vault watcher",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
				return fmt.Errorf("app run error: %w", err)
			}
			return nil
		},
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve MCP task tools over stdio",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return internal.RunMCP(ctx, internal.WithConfig(cfg))
		},
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default .cadence/config.yaml into the vault",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing vault config"},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
				return fmt.Errorf("create vault dir: %w", err)
			}
			store, err := storage.NewFS(cfg.Vault.Path)
			if err != nil {
				return err
			}
			path := vault.ConfigPath(store.Root())
			if store.Exists(path) && !cmd.Bool("force") {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			data, err := vault.Marshal(vault.NewDefaultConfig())
			if err != nil {
				return err
			}
			if err := store.Write(path, data); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.Root().Writer, "wrote %s\n", path)
			return err
		},
	}
}

// openService builds a task service for one CLI invocation. The index is
// synced first so search sees edits made since the last run.
func openService(cmd *cli.Command) (*taskservice.Service, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: slog.LevelWarn}))

	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}
	dbPath := cfg.Index.ResolvedPath(store.Root())
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := index.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("init index: %w", err)
	}
	if _, err := index.Sync(db, store, logger); err != nil {
		logger.Warn("index sync failed", slog.String("error", err.Error()))
	}

	svc := taskservice.NewService(store, vault.NewConfigCache(),
		taskservice.WithIndex(db),
		taskservice.WithLogger(logger))
	return svc, func() { db.Close() }, nil
}

func jsonOutput(cmd *cli.Command) bool {
	return cmd.Root().Bool("json")
}

// relTo returns a function that shortens absolute paths under root.
func relTo(root string) func(string) string {
	return func(p string) string {
		if rel, err := filepath.Rel(root, p); err == nil {
			return filepath.ToSlash(rel)
		}
		return p
	}
}
