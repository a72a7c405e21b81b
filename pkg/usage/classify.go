package usage

import (
	"github.com/kamoh/leftovers/pkg/models"
)

// Allowlist answers the configured name patterns. *rules.RuleSet
// implements it.
type Allowlist interface {
	Keep(name string) bool
	TestOnly(name string) bool
}

// Baseline is a persisted list of names not to report: Keep names are
// used, TestOnly names may be used only from tests.
type Baseline struct {
	Keep     []string
	TestOnly []string

	keep     map[string]bool
	testOnly map[string]bool
}

// NewBaseline builds a baseline from the two lists.
func NewBaseline(keep, testOnly []string) *Baseline {
	b := &Baseline{Keep: keep, TestOnly: testOnly}
	b.index()
	return b
}

func (b *Baseline) index() {
	b.keep = make(map[string]bool, len(b.Keep))
	for _, n := range b.Keep {
		b.keep[n] = true
	}
	b.testOnly = make(map[string]bool, len(b.TestOnly))
	for _, n := range b.TestOnly {
		b.testOnly[n] = true
	}
}

func (b *Baseline) keeps(name string) bool {
	if b == nil {
		return false
	}
	if b.keep == nil {
		b.index()
	}
	return b.keep[name]
}

func (b *Baseline) allowsTestOnly(name string) bool {
	if b == nil {
		return false
	}
	if b.testOnly == nil {
		b.index()
	}
	return b.testOnly[name]
}

// Classifier decides verdicts against an aggregate. Allow and Baseline
// may be nil.
type Classifier struct {
	Allow    Allowlist
	Baseline *Baseline
}

// Verdict classifies one definition. suppressed is set when the
// definition is only used from tests but a test_only pattern or the
// baseline allows that.
func (c *Classifier) Verdict(agg *Aggregate, d models.Definition) (v models.Verdict, suppressed bool) {
	name := d.Name
	switch {
	case c.Allow != nil && c.Allow.Keep(name):
		return models.VerdictUsed, false
	case d.Dynamic:
		return models.VerdictUsed, false
	case c.Baseline.keeps(name):
		return models.VerdictUsed, false
	case c.Baseline.allowsTestOnly(name) && !agg.Called(name) && agg.TestCalled(name):
		return models.VerdictUsedOnlyInTests, true
	case agg.Called(name):
		return models.VerdictUsed, false
	case agg.TestCalled(name):
		if d.Test {
			// a test helper used by tests
			return models.VerdictUsed, false
		}
		if c.Allow != nil && c.Allow.TestOnly(name) {
			return models.VerdictUsedOnlyInTests, true
		}
		return models.VerdictUsedOnlyInTests, false
	default:
		return models.VerdictNeverUsed, false
	}
}

// SetVerdict classifies a definition set by its most used name. A set
// with any suppressed name is suppressed unless another name is used.
func (c *Classifier) SetVerdict(agg *Aggregate, set models.DefinitionSet) (models.Verdict, bool) {
	best, suppressed := models.VerdictNeverUsed, false
	for _, d := range set.Definitions {
		v, s := c.Verdict(agg, d)
		if v == models.VerdictUsed {
			return v, false
		}
		if s {
			suppressed = true
		}
		if v.Better(best) {
			best = v
		}
	}
	return best, suppressed
}

// Classify builds the report of every unused, unsuppressed definition
// set in agg, sorted by name.
func (c *Classifier) Classify(agg *Aggregate) *models.DeadCodeReport {
	r := &models.DeadCodeReport{Summary: models.NewDeadCodeSummary()}
	r.Summary.TotalFiles = agg.Files()
	r.Summary.TotalCalls = agg.CallCount()
	r.Summary.TotalDefinitions = len(agg.definitions)

	for _, set := range agg.Definitions() {
		v, suppressed := c.SetVerdict(agg, set)
		if suppressed || v == models.VerdictUsed {
			continue
		}
		r.Add(models.UnusedItem{DefinitionSet: set, Verdict: v})
	}
	r.Sort()
	r.Summary.CalculatePercentage()
	return r
}
