package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tea "charm.land/bubbletea/v2"
	cli "github.com/urfave/cli/v3"

	"tabsync/internal/client"
	"tabsync/internal/config"
	"tabsync/internal/logging"
	"tabsync/internal/store"
)

type commandWiring struct {
	stdout     io.Writer
	stderr     io.Writer
	configPath func() (string, error)
	openStore  func(cfg config.Config) (store.IndentCacheStore, error)
	newSource  func(cfg config.Config, logger logging.Logger) (client.Source, func(), error)
	runProgram func(ctx context.Context, model tea.Model) error
}

func defaultCommandWiring(stdout, stderr io.Writer) commandWiring {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}
	return commandWiring{
		stdout:     stdout,
		stderr:     stderr,
		configPath: config.ConfigPath,
		openStore:  openCacheStore,
		newSource:  newMessageSource,
		runProgram: runTeaProgram,
	}
}

// appEnv is what the root Before hook prepares for every subcommand.
type appEnv struct {
	cfg        config.Config
	configPath string
	log        logging.Logger
}

type envKey struct{}

func envFromContext(ctx context.Context) *appEnv {
	if env, ok := ctx.Value(envKey{}).(*appEnv); ok && env != nil {
		return env
	}
	return &appEnv{cfg: config.DefaultConfig(), log: logging.Nop()}
}

func newApp(wiring commandWiring) *cli.Command {
	return &cli.Command{
		Name:            "tabsync",
		Usage:           "mirrors a tab tree owner into a collapsible, indented sidebar",
		HideHelpCommand: true,
		Writer:          wiring.stdout,
		ErrWriter:       wiring.stderr,
		Before:          wiring.prepareEnv,
		After:           wiring.destroyEnv,
		ExitErrHandler:  func(context.Context, *cli.Command, error) {},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "load configuration from `FILE` (TOML)"},
			&cli.StringFlag{Name: "log-level", Usage: "override the configured log `LEVEL` (debug, info, warn, error)"},
		},
		Commands: []*cli.Command{
			newRunCommand(wiring),
			newStylesCommand(wiring),
			newCacheCommand(wiring),
			newPreviewCommand(wiring),
			newConfigCommand(wiring),
		},
	}
}

func (w commandWiring) prepareEnv(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	path := strings.TrimSpace(cmd.String("config"))
	if path == "" {
		var err error
		if path, err = w.configPath(); err != nil {
			return ctx, fmt.Errorf("resolve config path: %w", err)
		}
	}
	cfg, err := config.LoadFromPath(path)
	if err != nil {
		return ctx, fmt.Errorf("load config %s: %w", path, err)
	}
	level := cfg.LogLevel()
	if override := strings.TrimSpace(cmd.String("log-level")); override != "" {
		level = override
	}
	env := &appEnv{
		cfg:        cfg,
		configPath: path,
		log:        logging.New(w.stderr, logging.ParseLevel(level)),
	}
	env.log.Debug("config loaded", logging.F("path", path), logging.F("level", level))
	return context.WithValue(ctx, envKey{}, env), nil
}

func (w commandWiring) destroyEnv(ctx context.Context, _ *cli.Command) error {
	env := envFromContext(ctx)
	if err := env.log.Sync(); err != nil && !isIgnorableSyncError(err) {
		return fmt.Errorf("sync log: %w", err)
	}
	return nil
}

// isIgnorableSyncError filters the errors fsync reports for terminals and
// pipes.
func isIgnorableSyncError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return true
	}
	return errors.Is(err, os.ErrInvalid)
}

func openCacheStore(cfg config.Config) (store.IndentCacheStore, error) {
	path, err := cfg.StorePath()
	if err != nil {
		return nil, fmt.Errorf("resolve cache path: %w", err)
	}
	return store.Open(cfg.StoreBackend(), path)
}

func newMessageSource(cfg config.Config, logger logging.Logger) (client.Source, func(), error) {
	switch cfg.SyncSource() {
	case config.SourceNATS:
		source, err := client.DialNATS(cfg.NATSURL(), cfg.NATSSubject(), logger)
		if err != nil {
			return nil, nil, err
		}
		return source, source.Close, nil
	case config.SourceSSE:
		return client.NewSSESource(cfg.SyncBaseURL(), cfg.WindowID(), client.WithSSELogger(logger)), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown sync source %q", cfg.SyncSource())
	}
}

func runTeaProgram(ctx context.Context, model tea.Model) error {
	_, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
