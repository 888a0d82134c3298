package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"tabsync/internal/logging"
	"tabsync/internal/preview"
)

func newPreviewCommand(wiring commandWiring) *cli.Command {
	return &cli.Command{
		Name:  "preview",
		Usage: "Explore collapse animations and indentation on a demo tree in the terminal",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-file", Usage: "write debug logs to `FILE` while the preview runs"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env := envFromContext(ctx)
			var opts []preview.Option
			if path := cmd.String("log-file"); path != "" {
				f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return err
				}
				defer f.Close()
				opts = append(opts, preview.WithLogger(logging.New(f, logging.Debug)))
			}
			return wiring.runProgram(ctx, preview.New(env.cfg, opts...))
		},
	}
}
