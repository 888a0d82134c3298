package main

import (
	"context"
	"fmt"
	"sort"

	cli "github.com/urfave/cli/v3"

	"tabsync/internal/store"
)

func newCacheCommand(wiring commandWiring) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Inspect or clear the persisted indent stylesheet cache",
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "List cached stylesheets per window",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "definition", Usage: "print the cached stylesheet text too"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return wiring.withStore(ctx, func(s store.IndentCacheStore) error {
						caches, err := s.List(ctx)
						if err != nil {
							return err
						}
						if len(caches) == 0 {
							_, err := fmt.Fprintf(wiring.stdout, "no cached stylesheets (%s)\n", s.Backend())
							return err
						}
						windows := make([]int, 0, len(caches))
						for id := range caches {
							windows = append(windows, id)
						}
						sort.Ints(windows)
						for _, id := range windows {
							cache := caches[id]
							fmt.Fprintf(wiring.stdout, "window %d: last_max_level=%d last_max_indent=%.2f bytes=%d\n",
								id, cache.LastMaxLevel, cache.LastMaxIndent, len(cache.Definition))
							if cmd.Bool("definition") {
								fmt.Fprintln(wiring.stdout, cache.Definition)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "clear",
				Usage: "Delete the cached stylesheet of one window, or of all windows",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "window", Value: -1, Usage: "window `ID` to clear (default: configured window)"},
					&cli.BoolFlag{Name: "all", Usage: "clear every window"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return wiring.withStore(ctx, func(s store.IndentCacheStore) error {
						var windows []int
						if cmd.Bool("all") {
							caches, err := s.List(ctx)
							if err != nil {
								return err
							}
							for id := range caches {
								windows = append(windows, id)
							}
							sort.Ints(windows)
						} else {
							window := cmd.Int("window")
							if window < 0 {
								window = envFromContext(ctx).cfg.WindowID()
							}
							windows = []int{window}
						}
						for _, id := range windows {
							if err := s.Delete(ctx, id); err != nil {
								return fmt.Errorf("clear window %d: %w", id, err)
							}
						}
						_, err := fmt.Fprintf(wiring.stdout, "cleared %d window(s)\n", len(windows))
						return err
					})
				},
			},
		},
	}
}

func (w commandWiring) withStore(ctx context.Context, fn func(store.IndentCacheStore) error) error {
	s, err := w.openStore(envFromContext(ctx).cfg)
	if err != nil {
		return fmt.Errorf("open cache store: %w", err)
	}
	defer s.Close()
	return fn(s)
}
