// Package check runs a whole project check: scan, collect, aggregate and
// classify.
package check

import (
	"context"
	"fmt"
	"os"

	"github.com/kamoh/leftovers/internal/cache"
	"github.com/kamoh/leftovers/internal/fileproc"
	"github.com/kamoh/leftovers/internal/scanner"
	"github.com/kamoh/leftovers/pkg/collector"
	"github.com/kamoh/leftovers/pkg/config"
	"github.com/kamoh/leftovers/pkg/models"
	"github.com/kamoh/leftovers/pkg/parser"
	"github.com/kamoh/leftovers/pkg/rules"
	"github.com/kamoh/leftovers/pkg/todo"
	"github.com/kamoh/leftovers/pkg/usage"
)

// Service checks one project root.
type Service struct {
	root   string
	config *config.Config
	rules  *rules.RuleSet
	cache  *cache.Cache

	useCache    bool
	noGitignore bool
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration instead of loading it from the root.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) {
		s.config = cfg
	}
}

// WithCache enables the per-file result cache below the root.
func WithCache(enabled bool) Option {
	return func(s *Service) {
		s.useCache = enabled
	}
}

// WithoutGitignore makes the scan ignore .gitignore files.
func WithoutGitignore() Option {
	return func(s *Service) {
		s.noGitignore = true
	}
}

// New creates a check service for root. Configuration problems are
// reported here, before any file is read.
func New(root string, opts ...Option) (*Service, error) {
	s := &Service{root: root}
	for _, opt := range opts {
		opt(s)
	}

	if s.config == nil {
		cfg, err := config.Load(root, "")
		if err != nil {
			return nil, err
		}
		s.config = cfg
	}

	rs, err := rules.Build(s.config)
	if err != nil {
		return nil, err
	}
	s.rules = rs

	dir := ""
	if s.useCache {
		dir = cache.Dir(root)
	}
	if s.cache, err = cache.New(dir, rs.Fingerprint(), s.useCache); err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return s, nil
}

// Config returns the configuration the service runs with.
func (s *Service) Config() *config.Config { return s.config }

// Rules returns the compiled rule set.
func (s *Service) Rules() *rules.RuleSet { return s.rules }

// Files lists the files a check looks at, sorted by path.
func (s *Service) Files() ([]scanner.File, error) {
	scan := scanner.NewScanner(s.config)
	if s.noGitignore {
		scan.WithoutGitignore()
	}
	files, err := scan.ScanDir(s.root)
	if err != nil {
		return nil, &ScanError{Path: s.root, Err: err}
	}
	return files, nil
}

// Options configure a run.
type Options struct {
	// Jobs bounds concurrent collection; 1 collects sequentially.
	Jobs int
	// OnProgress is called after each collected file.
	OnProgress func()
	// IgnoreBaseline classifies without the TODO file, as when it is
	// about to be regenerated.
	IgnoreBaseline bool
}

// Result is the outcome of a run.
type Result struct {
	Files     []scanner.File
	Aggregate *usage.Aggregate
	Report    *models.DeadCodeReport
}

// Summary is the "checked N files, ..." line.
func (r *Result) Summary() string {
	return r.Aggregate.Summary()
}

// Run checks files. When files is nil the root is scanned.
func (s *Service) Run(ctx context.Context, files []scanner.File, opts Options) (*Result, error) {
	if files == nil {
		var err error
		if files, err = s.Files(); err != nil {
			return nil, err
		}
	}

	var baseline *usage.Baseline
	if !opts.IgnoreBaseline {
		var err error
		if baseline, err = todo.Load(todo.Path(s.root)); err != nil {
			return nil, err
		}
	}

	agg, err := s.Collect(ctx, files, opts)
	if err != nil {
		return nil, err
	}

	classifier := &usage.Classifier{Allow: s.rules, Baseline: baseline}
	return &Result{
		Files:     files,
		Aggregate: agg,
		Report:    classifier.Classify(agg),
	}, nil
}

// Collect collects every file and merges the results.
func (s *Service) Collect(ctx context.Context, files []scanner.File, opts Options) (*usage.Aggregate, error) {
	results, err := fileproc.MapFiles(ctx, files, fileproc.Options{
		Jobs:       opts.Jobs,
		OnProgress: opts.OnProgress,
	}, func(psr *parser.Parser, f scanner.File) (*models.FileResult, error) {
		return s.collectFile(ctx, psr, f)
	})
	if err != nil {
		return nil, err
	}

	agg := usage.New()
	for _, res := range results {
		agg.Add(res)
	}
	return agg, nil
}

func (s *Service) collectFile(ctx context.Context, psr *parser.Parser, f scanner.File) (*models.FileResult, error) {
	source, err := os.ReadFile(f.Abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var hash string
	if s.cache.Enabled() {
		hash = cache.HashBytes(source)
		if res, ok := s.cache.Get(f.Path, f.Test, hash); ok {
			return res, nil
		}
	}

	file, err := psr.Parse(ctx, f.Path, source)
	if err != nil {
		return nil, err
	}
	res := collector.Collect(file, s.rules, f.Test)

	if s.cache.Enabled() {
		// A failed write only costs the next run a parse.
		_ = s.cache.Put(f.Path, f.Test, hash, res)
	}
	return res, nil
}
