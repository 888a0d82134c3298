package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	cli "github.com/urfave/cli/v3"

	"tabsync/internal/indent"
)

const defaultStylesWrap = 100

func newStylesCommand(wiring commandWiring) *cli.Command {
	return &cli.Command{
		Name:  "styles",
		Usage: "Print the indent stylesheet generated for a tree depth and sidebar width",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "max-level", Value: 3, Usage: "deepest tree `LEVEL` to cover"},
			&cli.IntFlag{Name: "width", Value: defaultSidebarWidth, Usage: "sidebar `WIDTH` in pixels"},
			&cli.BoolFlag{Name: "pretty", Usage: "render as highlighted markdown"},
			&cli.StringFlag{Name: "style", Value: styles.AutoStyle, Usage: "glamour `STYLE` used with --pretty"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			maxLevel := cmd.Int("max-level")
			width := cmd.Int("width")
			if maxLevel < 0 {
				return fmt.Errorf("--max-level must not be negative, got %d", maxLevel)
			}
			if width <= 0 {
				return fmt.Errorf("--width must be positive, got %d", width)
			}
			cfg := envFromContext(ctx).cfg
			params := cfg.IndentParams()
			maxIndent := float64(width) * cfg.WidthRatio()

			sheet := indent.NewStylesheet(params)
			sheet.Update(maxLevel, maxIndent, true)
			definition := sheet.Definition()
			if err := indent.Validate(definition); err != nil {
				return err
			}
			if !cmd.Bool("pretty") {
				_, err := fmt.Fprintln(wiring.stdout, definition)
				return err
			}
			unit := indent.UnitFor(maxLevel, maxIndent, params)
			out, err := renderStylesheetMarkdown(definition, maxLevel, unit, width, cmd.String("style"))
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(wiring.stdout, out)
			return err
		},
	}
}

func renderStylesheetMarkdown(definition string, maxLevel, unit, width int, style string) (string, error) {
	var md strings.Builder
	md.WriteString("## Indent stylesheet\n\n")
	fmt.Fprintf(&md, "max level **%d**, unit **%dpx**, width **%dpx**\n\n", maxLevel, unit, width)
	md.WriteString("```css\n")
	md.WriteString(definition)
	md.WriteString("\n```\n")

	styleOpt := glamour.WithAutoStyle()
	if style = strings.TrimSpace(style); style != "" && style != styles.AutoStyle {
		styleOpt = glamour.WithStandardStyle(style)
	}
	renderer, err := glamour.NewTermRenderer(styleOpt, glamour.WithWordWrap(defaultStylesWrap))
	if err != nil {
		return "", fmt.Errorf("markdown renderer: %w", err)
	}
	return renderer.Render(md.String())
}
