package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/kamoh/leftovers/internal/scanner"
	"github.com/kamoh/leftovers/internal/service/check"
	"github.com/kamoh/leftovers/pkg/todo"
	"github.com/kamoh/leftovers/pkg/watch"
)

// watchAction reports once, then again whenever a checked file changes,
// until the context is cancelled.
func watchAction(c *cli.Context, svc *check.Service, files []scanner.File, opts check.Options) (int, error) {
	stdout := c.App.Writer
	stderr := c.App.ErrWriter
	colorOut := colored(c, stdout)

	rerun := func(files []scanner.File) {
		res, err := svc.Run(c.Context, files, opts)
		if err == nil {
			_, err = report(c, res)
		}
		if err != nil && !errors.Is(err, c.Context.Err()) {
			printError(stderr, err)
		}
	}
	rerun(files)

	sc := scanner.NewScanner(svc.Config())
	w, err := watch.NewWatcher(getRoot(c), watch.Options{
		Files: func(rel string) bool {
			return sc.Included(rel) || rel == todo.FileName
		},
		SkipDir: func(rel string) bool {
			return sc.ExcludedDir(rel) || rel == ".leftovers"
		},
		Out:     stdout,
		Colored: colorOut,
	})
	if err != nil {
		return exitError, err
	}
	defer w.Stop()

	yellow := color.New(color.FgYellow)
	if colorOut {
		yellow.EnableColor()
	} else {
		yellow.DisableColor()
	}
	w.SetCallback(func(changed []string) {
		yellow.Fprintf(stdout, "\nChanged: %s\n", strings.Join(changed, ", "))
		fmt.Fprintln(stdout, strings.Repeat("-", 40))

		files, err := svc.Files()
		if err != nil {
			printError(stderr, err)
			return
		}
		rerun(files)
	})

	if err := w.Start(c.Context); err != nil && !errors.Is(err, c.Context.Err()) {
		return exitError, err
	}
	return exitOK, nil
}
