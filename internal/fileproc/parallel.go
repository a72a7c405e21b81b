// Package fileproc runs per-file work over a bounded worker pool.
package fileproc

import (
	"context"
	"fmt"
	"runtime"

	"github.com/sourcegraph/conc/pool"

	"github.com/kamoh/leftovers/internal/scanner"
	"github.com/kamoh/leftovers/pkg/parser"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e ProcessingError) Unwrap() error {
	return e.Err
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x suits mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// ProgressFunc is called after each file is processed.
type ProgressFunc func()

// Options configure MapFiles.
type Options struct {
	// Jobs bounds the number of concurrent workers. 0 means 2x NumCPU and
	// 1 processes the files in order on the calling goroutine.
	Jobs       int
	OnProgress ProgressFunc
}

func (o Options) workers(n int) int {
	w := o.Jobs
	if w <= 0 {
		w = runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return min(w, n)
}

// MapFiles calls fn for every file and returns the results in the order
// of files. Every worker gets a parser of its own, reused across files.
// The first error stops scheduling and is returned as a ProcessingError.
func MapFiles[T any](ctx context.Context, files []scanner.File, opts Options, fn func(*parser.Parser, scanner.File) (T, error)) ([]T, error) {
	if len(files) == 0 {
		return nil, nil
	}

	workers := opts.workers(len(files))
	if workers == 1 {
		return mapSequential(ctx, files, opts, fn)
	}

	// Parsers are created on first use and handed from task to task.
	parsers := make(chan *parser.Parser, workers)
	for range workers {
		parsers <- nil
	}
	defer func() {
		close(parsers)
		for psr := range parsers {
			if psr != nil {
				psr.Close()
			}
		}
	}()

	results := make([]T, len(files))

	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(workers).
		WithCancelOnError().
		WithFirstError()
	for i, f := range files {
		p.Go(func(poolCtx context.Context) error {
			if poolCtx.Err() != nil {
				// Either the caller cancelled or another file failed first.
				return ctx.Err()
			}

			psr := <-parsers
			if psr == nil {
				psr = parser.New()
			}
			defer func() { parsers <- psr }()

			result, err := fn(psr, f)
			if opts.OnProgress != nil {
				opts.OnProgress()
			}
			if err != nil {
				return ProcessingError{Path: f.Path, Err: err}
			}
			results[i] = result
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func mapSequential[T any](ctx context.Context, files []scanner.File, opts Options, fn func(*parser.Parser, scanner.File) (T, error)) ([]T, error) {
	psr := parser.New()
	defer psr.Close()

	results := make([]T, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		result, err := fn(psr, f)
		if opts.OnProgress != nil {
			opts.OnProgress()
		}
		if err != nil {
			return nil, ProcessingError{Path: f.Path, Err: err}
		}
		results = append(results, result)
	}
	return results, nil
}
