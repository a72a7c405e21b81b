package models

import "sort"

// UnusedItem is one reported definition set with its verdict.
type UnusedItem struct {
	DefinitionSet
	Verdict Verdict `json:"verdict"`
}

// DeadCodeReport is the result of a run: what was checked and what is
// unused, each listing sorted by name.
type DeadCodeReport struct {
	NeverUsed   []UnusedItem    `json:"never_used"`
	OnlyInTests []UnusedItem    `json:"only_in_tests"`
	Summary     DeadCodeSummary `json:"summary"`
}

// Empty reports whether everything is used.
func (r *DeadCodeReport) Empty() bool {
	return len(r.NeverUsed) == 0 && len(r.OnlyInTests) == 0
}

// Add files item under its verdict. Used items are ignored.
func (r *DeadCodeReport) Add(item UnusedItem) {
	switch item.Verdict {
	case VerdictNeverUsed:
		r.NeverUsed = append(r.NeverUsed, item)
	case VerdictUsedOnlyInTests:
		r.OnlyInTests = append(r.OnlyInTests, item)
	default:
		return
	}
	r.Summary.AddUnused(item)
}

// Sort orders both listings by name, then location.
func (r *DeadCodeReport) Sort() {
	SortItems(r.NeverUsed)
	SortItems(r.OnlyInTests)
}

// SortItems sorts by name, then path, line and column. The sort is stable
// so equal items keep their order.
func SortItems(items []UnusedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Name() != b.Name() {
			return a.Name() < b.Name()
		}
		la, lb := a.Location(), b.Location()
		if la.Path != lb.Path {
			return la.Path < lb.Path
		}
		if la.Line != lb.Line {
			return la.Line < lb.Line
		}
		return la.Column < lb.Column
	})
}

// SortItemsByLocation sorts by path, line and column, then name.
func SortItemsByLocation(items []UnusedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		la, lb := items[i].Location(), items[j].Location()
		if la.Path != lb.Path {
			return la.Path < lb.Path
		}
		if la.Line != lb.Line {
			return la.Line < lb.Line
		}
		if la.Column != lb.Column {
			return la.Column < lb.Column
		}
		return items[i].Name() < items[j].Name()
	})
}

// DeadCodeSummary provides aggregate statistics.
type DeadCodeSummary struct {
	TotalFiles       int            `json:"total_files"`
	TotalCalls       int            `json:"total_calls"`
	TotalDefinitions int            `json:"total_definitions"`
	TotalNeverUsed   int            `json:"total_never_used"`
	TotalOnlyInTests int            `json:"total_only_in_tests"`
	ByFile           map[string]int `json:"by_file"`
	UnusedPercentage float64        `json:"unused_percentage"`
}

// NewDeadCodeSummary creates an initialized summary.
func NewDeadCodeSummary() DeadCodeSummary {
	return DeadCodeSummary{
		ByFile: make(map[string]int),
	}
}

// AddUnused updates the summary with a reported item.
func (s *DeadCodeSummary) AddUnused(item UnusedItem) {
	if s.ByFile == nil {
		s.ByFile = make(map[string]int)
	}
	switch item.Verdict {
	case VerdictNeverUsed:
		s.TotalNeverUsed++
	case VerdictUsedOnlyInTests:
		s.TotalOnlyInTests++
	}
	s.ByFile[item.Location().Path]++
}

// CalculatePercentage computes the share of definitions reported.
func (s *DeadCodeSummary) CalculatePercentage() {
	if s.TotalDefinitions > 0 {
		s.UnusedPercentage = float64(s.TotalNeverUsed+s.TotalOnlyInTests) / float64(s.TotalDefinitions) * 100
	}
}
