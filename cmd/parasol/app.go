package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

// version is set via ldflags at build time by GoReleaser.
// e.g. -ldflags "-X main.version=1.2.3"
var version = "dev"

// newApp creates the CLI application with all flags and commands.
func newApp() *cli.Command {
	return &cli.Command{
		Name:        "parasol",
		Usage:       "Weather-aware answer agent",
		Version:     version,
		UsageText:   "parasol [global options] command [command options] [arguments...]",
		Description: "Parasol answers questions in one sentence, calling its weather tool when a query needs live conditions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (default: ~/.parasol/config.json)",
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Backend mode: auto, primary, secondary, or a backend name",
			},
			&cli.BoolFlag{
				Name:  "plain",
				Usage: "Plain log output (no TUI)",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Verbose logging",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Print only final answers (mutually exclusive with --json and --plain)",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output in JSON format (mutually exclusive with --quiet and --plain)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			// Validate mutual exclusivity of output format flags
			quiet := cmd.Bool("quiet")
			json := cmd.Bool("json")
			plain := cmd.Bool("plain")

			flagCount := 0
			if quiet {
				flagCount++
			}
			if json {
				flagCount++
			}
			if plain {
				flagCount++
			}

			if flagCount > 1 {
				return ctx, fmt.Errorf("flags --quiet, --json, and --plain are mutually exclusive")
			}

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:      "ask",
				Usage:     "Ask a single question and exit",
				ArgsUsage: "<question>",
				Action:    cmdAsk,
			},
			{
				Name:   "chat",
				Usage:  "Start an interactive chat session",
				Action: cmdChat,
			},
			{
				Name:   "doctor",
				Usage:  "Check backend connectivity and tool health",
				Action: cmdDoctor,
			},
			{
				Name:  "init",
				Usage: "Write a default config file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing config"},
				},
				Action: cmdInit,
			},
			{
				Name:   "config",
				Usage:  "Show current configuration",
				Action: cmdConfig,
			},
			{
				Name:  "cache",
				Usage: "Show the weather cache; --clear empties it",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "Remove all cached weather reports"},
				},
				Action: cmdCache,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			// Default action: treat remaining args as a question (implicit ask)
			args := cmd.Args().Slice()
			if len(args) == 0 {
				// No question: start interactive chat
				return cmdChat(ctx, cmd)
			}
			return runAsk(ctx, cmd, strings.Join(args, " "))
		},
	}
}
