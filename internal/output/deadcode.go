package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/kamoh/leftovers/pkg/models"
)

// Section titles of the text report.
const (
	TitleNeverUsed   = "Not directly called at all:"
	TitleOnlyInTests = "Only directly called in tests:"
	EverythingUsed   = "Everything is used"
)

// DeadCode renders a classified run.
type DeadCode struct {
	Report *models.DeadCodeReport
	// Summary is the "checked N files, ..." line.
	Summary string
	// ResolveURL is printed after a non-empty report.
	ResolveURL string
}

// ItemData is the serialized form of a reported definition set.
type ItemData struct {
	Names    []string `json:"names" toon:"names"`
	Location string   `json:"location" toon:"location"`
	Source   string   `json:"source" toon:"source"`
	Test     bool     `json:"test,omitempty" toon:"test,omitempty"`
}

// DeadCodeData is the serialized form of a run.
type DeadCodeData struct {
	Summary     string         `json:"summary" toon:"summary"`
	Files       int            `json:"files" toon:"files"`
	Calls       int            `json:"calls" toon:"calls"`
	Definitions int            `json:"definitions" toon:"definitions"`
	OnlyInTests []ItemData     `json:"only_in_tests" toon:"only_in_tests"`
	NeverUsed   []ItemData     `json:"never_used" toon:"never_used"`
	ByFile      map[string]int `json:"by_file,omitempty" toon:"by_file,omitempty"`
	Unused      float64        `json:"unused_percentage" toon:"unused_percentage"`
}

func (d *DeadCode) sections() []struct {
	title string
	items []models.UnusedItem
} {
	onlyInTests := append([]models.UnusedItem(nil), d.Report.OnlyInTests...)
	neverUsed := append([]models.UnusedItem(nil), d.Report.NeverUsed...)
	models.SortItemsByLocation(onlyInTests)
	models.SortItemsByLocation(neverUsed)
	return []struct {
		title string
		items []models.UnusedItem
	}{
		{TitleOnlyInTests, onlyInTests},
		{TitleNeverUsed, neverUsed},
	}
}

func itemData(items []models.UnusedItem) []ItemData {
	out := make([]ItemData, 0, len(items))
	for _, it := range items {
		loc := it.Location()
		out = append(out, ItemData{
			Names:    it.Names(),
			Location: loc.String(),
			Source:   loc.Context(),
			Test:     it.Test(),
		})
	}
	return out
}

func (d *DeadCode) RenderData() any {
	s := d.Report.Summary
	secs := d.sections()
	return DeadCodeData{
		Summary:     d.Summary,
		Files:       s.TotalFiles,
		Calls:       s.TotalCalls,
		Definitions: s.TotalDefinitions,
		OnlyInTests: itemData(secs[0].items),
		NeverUsed:   itemData(secs[1].items),
		ByFile:      s.ByFile,
		Unused:      s.UnusedPercentage,
	}
}

func (d *DeadCode) RenderText(w io.Writer, colored bool) error {
	red := colorer(colored, color.FgRed)
	green := colorer(colored, color.FgGreen)
	cyan := colorer(colored, color.FgCyan)

	fmt.Fprintln(w, d.Summary)
	if d.Report.Empty() {
		fmt.Fprintln(w, green(EverythingUsed))
		return nil
	}

	for _, sec := range d.sections() {
		if len(sec.items) == 0 {
			continue
		}
		fmt.Fprintln(w, red(sec.title))
		for _, it := range sec.items {
			loc := it.Location()
			fmt.Fprintf(w, "%s %s %s\n", cyan(loc.String()), it.String(), source(it, colored))
		}
	}

	if d.ResolveURL != "" {
		fmt.Fprintf(w, "\nhow to resolve: %s\n", green(d.ResolveURL))
	}
	return nil
}

// source renders the definition's line, dimmed with the name in yellow.
func source(it models.UnusedItem, colored bool) string {
	loc := it.Location()
	if !colored {
		return loc.Context()
	}
	faint := color.New(color.Faint)
	faint.EnableColor()
	return faint.Sprint(loc.Highlight("\x1b[33m", "\x1b[0;2m"))
}

func colorer(colored bool, attr color.Attribute) func(a ...any) string {
	if !colored {
		return fmt.Sprint
	}
	c := color.New(attr)
	c.EnableColor()
	return c.SprintFunc()
}

func (d *DeadCode) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "# Leftovers\n\n%s\n\n", d.Summary)
	if d.Report.Empty() {
		fmt.Fprintf(w, "%s\n", EverythingUsed)
		return nil
	}

	for _, sec := range d.sections() {
		if len(sec.items) == 0 {
			continue
		}
		t := NewTable(strings.TrimSuffix(sec.title, ":"), []string{"Location", "Names", "Source"}, rows(sec.items, false), nil, nil)
		if err := t.RenderMarkdown(w); err != nil {
			return err
		}
	}

	if d.ResolveURL != "" {
		fmt.Fprintf(w, "[How to resolve](%s)\n", d.ResolveURL)
	}
	return nil
}

func rows(items []models.UnusedItem, verdict bool) [][]string {
	out := make([][]string, 0, len(items))
	for _, it := range items {
		loc := it.Location()
		row := []string{loc.String(), it.String()}
		if verdict {
			row = append(row, verdictLabel(it.Verdict))
		}
		out = append(out, append(row, loc.Context()))
	}
	return out
}

func verdictLabel(v models.Verdict) string {
	if v == models.VerdictUsedOnlyInTests {
		return "tests only"
	}
	return "unused"
}

// Table lists every reported item with its verdict, or is nil when
// everything is used.
func (d *DeadCode) Table() *Table {
	if d.Report.Empty() {
		return nil
	}
	var all []models.UnusedItem
	for _, sec := range d.sections() {
		all = append(all, sec.items...)
	}
	footer := []string{d.Summary, "", "", ""}
	return NewTable("", []string{"Location", "Names", "Verdict", "Source"}, rows(all, true), footer, d.RenderData())
}
