package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/kamoh/leftovers/internal/output"
	"github.com/kamoh/leftovers/internal/progress"
	"github.com/kamoh/leftovers/internal/service/check"
	"github.com/kamoh/leftovers/pkg/config"
	"github.com/kamoh/leftovers/pkg/todo"
)

const todoGenerated = `generated ` + todo.FileName + `.
running leftovers again will read this file and not alert you to any unused items mentioned in it.

commit this file so you/your team can gradually address these items while still having leftovers alert you to any newly unused items.`

// checkAction runs a check and returns the exit status.
func checkAction(c *cli.Context) (int, error) {
	stdout := c.App.Writer
	stderr := c.App.ErrWriter

	format := c.String("format")
	if !output.Valid(format) {
		names := make([]string, len(output.Formats))
		for i, f := range output.Formats {
			names[i] = string(f)
		}
		return exitError, fmt.Errorf("unknown format %q (want %s)", format, strings.Join(names, ", "))
	}

	if c.Bool("watch") && (c.Bool("write-todo") || c.Bool("dry-run")) {
		return exitError, errors.New("--watch cannot be combined with --write-todo or --dry-run")
	}

	root := getRoot(c)
	cfg, err := config.Load(root, c.String("config"))
	if err != nil {
		return exitError, err
	}

	svcOpts := []check.Option{
		check.WithConfig(cfg),
		check.WithCache(c.Bool("cache") && !c.Bool("no-cache")),
	}
	if c.Bool("no-gitignore") {
		svcOpts = append(svcOpts, check.WithoutGitignore())
	}
	svc, err := check.New(root, svcOpts...)
	if err != nil {
		return exitError, err
	}

	var bars io.Writer
	if c.Bool("progress") && !c.Bool("no-progress") && terminal(stderr) {
		bars = stderr
	}

	var scanning *progress.Reporter
	if !c.Bool("dry-run") {
		scanning = progress.Start(bars, progress.Scanning, 0)
	}
	files, err := svc.Files()
	scanning.Done()
	if err != nil {
		return exitError, err
	}

	if c.Bool("dry-run") {
		for _, f := range files {
			fmt.Fprintln(stdout, f.Path)
		}
		return exitOK, nil
	}

	writeTodo := c.Bool("write-todo")
	todoPath := todo.Path(root)
	if writeTodo {
		if err := removeTodo(stdout, todoPath); err != nil {
			return exitError, err
		}
	}

	jobs := c.Int("jobs")
	if !c.Bool("parallel") || c.Bool("no-parallel") {
		jobs = 1
	}
	opts := check.Options{Jobs: jobs, IgnoreBaseline: writeTodo}

	if c.Bool("watch") {
		return watchAction(c, svc, files, opts)
	}

	collecting := progress.Start(bars, progress.Collecting, len(files))
	opts.OnProgress = collecting.File
	res, err := svc.Run(c.Context, files, opts)
	collecting.Done()
	if err != nil {
		return exitError, err
	}

	if writeTodo {
		fmt.Fprintln(stdout, res.Summary())
		if res.Report.Empty() {
			fmt.Fprintf(stdout, "No %s file generated, everything is used\n", todo.FileName)
			return exitOK, nil
		}
		if err := todo.Save(todoPath, res.Report, version, time.Now()); err != nil {
			return exitError, err
		}
		fmt.Fprintln(stdout, todoGenerated)
		return exitOK, nil
	}

	return report(c, res)
}

// report renders a classified run and returns the exit status.
func report(c *cli.Context, res *check.Result) (int, error) {
	formatter, err := newFormatter(c, output.ParseFormat(c.String("format")))
	if err != nil {
		return exitError, err
	}
	defer formatter.Close()

	err = formatter.Output(&output.DeadCode{
		Report:     res.Report,
		Summary:    res.Summary(),
		ResolveURL: fmt.Sprintf(todo.ResolveURL, version),
	})
	if err != nil {
		return exitError, err
	}
	if res.Report.Empty() {
		return exitOK, nil
	}
	return exitUnused, nil
}

func newFormatter(c *cli.Context, format output.Format) (*output.Formatter, error) {
	if path := c.String("output"); path != "" {
		return output.NewFormatter(format, path, false)
	}
	return output.NewWriterFormatter(format, c.App.Writer, colored(c, c.App.Writer)), nil
}

// removeTodo deletes an existing TODO file so the new one starts clean.
func removeTodo(stdout io.Writer, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	fmt.Fprintf(stdout, "Removing previous %s file\n\n", todo.FileName)
	return os.Remove(path)
}
