package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"

	"tabsync/internal/config"
)

func newConfigCommand(wiring commandWiring) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Print the effective configuration as TOML",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "default", Usage: "print the built-in defaults instead"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			env := envFromContext(ctx)
			cfg := env.cfg
			if cmd.Bool("default") {
				cfg = config.DefaultConfig()
			} else {
				fmt.Fprintf(wiring.stdout, "# %s\n", env.configPath)
			}
			data, err := cfg.Encode()
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = wiring.stdout.Write(data)
			return err
		},
	}
}
