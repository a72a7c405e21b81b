package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"
)

var version = "dev"

// Exit statuses.
const (
	exitOK     = 0
	exitUnused = 1
	exitError  = 2
)

func init() {
	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Fprintln(c.App.Writer, c.App.Version)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the CLI and returns the exit status.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	code := exitOK
	app := newApp(stdout, stderr, &code)
	if err := app.RunContext(ctx, args); err != nil {
		printError(stderr, err)
		return exitError
	}
	return code
}

func printError(w io.Writer, err error) {
	red := color.New(color.FgRed)
	if terminal(w) {
		red.EnableColor()
	} else {
		red.DisableColor()
	}
	red.Fprintf(w, "Error: %v\n", err)
}

func newApp(stdout, stderr io.Writer, code *int) *cli.App {
	return &cli.App{
		Name:      "leftovers",
		Usage:     "Find unused methods, constants and variables in Ruby projects",
		UsageText: "leftovers [options] [root]",
		Version:   version,
		Writer:    stdout,
		ErrWriter: stderr,
		// Errors are reported by run.
		ExitErrHandler:  func(*cli.Context, error) {},
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "parallel",
				Value: true,
				Usage: "Collect files in parallel",
			},
			&cli.BoolFlag{
				Name:  "no-parallel",
				Usage: "Collect files one at a time",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Usage:   "Maximum parallel workers (0 = 2x CPUs)",
			},
			&cli.BoolFlag{
				Name:  "progress",
				Value: true,
				Usage: "Show progress on a terminal",
			},
			&cli.BoolFlag{
				Name:  "no-progress",
				Usage: "Hide progress",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Output files that will be looked at",
			},
			&cli.BoolFlag{
				Name:  "watch",
				Usage: "Check again whenever a source file changes",
			},
			&cli.BoolFlag{
				Name:  "write-todo",
				Usage: "Outputs the unused items in a todo file to gradually fix",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Value:   "text",
				Usage:   "Output format: text, json, toon, markdown, table",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write output to file",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to config file (YAML, JSON or TOML)",
				EnvVars: []string{"LEFTOVERS_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "cache",
				Usage: "Reuse results of unchanged files from .leftovers/cache",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Disable the result cache",
			},
			&cli.BoolFlag{
				Name:  "no-gitignore",
				Usage: "Look at files ignored by .gitignore",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
		},
		Action: func(c *cli.Context) error {
			status, err := checkAction(c)
			*code = status
			return err
		},
		Commands: []*cli.Command{
			configCmd(),
		},
	}
}

// getRoot returns the project root from the positional args, defaulting
// to ".".
func getRoot(c *cli.Context) string {
	if c.Args().Len() > 0 {
		return c.Args().First()
	}
	return "."
}

// terminal reports whether w is an interactive terminal.
func terminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

// colored reports whether output to w should be colored.
func colored(c *cli.Context, w io.Writer) bool {
	if c.Bool("no-color") || os.Getenv("NO_COLOR") != "" {
		return false
	}
	return terminal(w)
}
