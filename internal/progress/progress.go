// Package progress draws the phases of a check on a terminal, usually
// stderr.
package progress

import (
	"io"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
)

// Phase is a stage of a check run.
type Phase int

const (
	// Scanning walks the project for source files. Its total is unknown.
	Scanning Phase = iota
	// Collecting parses each file and collects its definitions and calls.
	Collecting
)

func (p Phase) String() string {
	switch p {
	case Scanning:
		return "Scanning files..."
	case Collecting:
		return "Collecting..."
	}
	return "Working..."
}

// Reporter draws one phase. A nil Reporter, or one started without a
// writer, counts files but draws nothing.
type Reporter struct {
	phase Phase
	bar   *progressbar.ProgressBar
	files atomic.Int64
}

// Start begins drawing phase on w. total is the number of files to
// collect and is ignored while scanning.
func Start(w io.Writer, phase Phase, total int) *Reporter {
	r := &Reporter{phase: phase}
	if w == nil {
		return r
	}

	opts := []progressbar.Option{
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(phase.String()),
	}
	if phase == Scanning {
		opts = append(opts,
			progressbar.OptionSetWidth(20),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionClearOnFinish(),
		)
		r.bar = progressbar.NewOptions(-1, opts...)
		return r
	}

	opts = append(opts,
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	r.bar = progressbar.NewOptions(total, opts...)
	return r
}

// File records one finished file. Safe for concurrent use.
func (r *Reporter) File() {
	if r == nil {
		return
	}
	r.files.Add(1)
	if r.bar != nil {
		_ = r.bar.Add(1)
	}
}

// Done erases the bar and returns how many files were recorded.
func (r *Reporter) Done() int {
	if r == nil {
		return 0
	}
	if r.bar != nil {
		_ = r.bar.Finish()
		_ = r.bar.Clear()
	}
	return int(r.files.Load())
}
