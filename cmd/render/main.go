package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cli "github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:            "render",
		Usage:           "render a block tree file the way the page service does",
		ArgsUsage:       "FILE (JSON or YAML, - for stdin)",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: formatTerminal, Usage: "output `FORMAT`: terminal, html, markdown or json"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "wrap html output in a full page with `TITLE`"},
			&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "write to `FILE` instead of stdout"},
			&cli.BoolFlag{Name: "no-color", Usage: "disable colours in terminal output"},
			&cli.BoolFlag{Name: "strict", Usage: "exit with an error when any block fails to render"},
		},
		Action: run,
	}

	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
