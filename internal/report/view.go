package report

import (
	"fmt"
	"net/url"
	"slices"
	"time"

	"github.com/acheong08/depguardian/internal/aggregate"
	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/pkg/models"
)

// Summary is the list-level view of one stored report
type Summary struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	CreatedAt   time.Time          `json:"created_at"`
	Shape       Shape              `json:"shape"`
	Packages    int                `json:"packages"`
	Stats       models.ReportStats `json:"stats"`
	HighestRisk models.RiskLevel   `json:"highest_risk"`
	Flags       []string           `json:"flags"`
}

// View is the detail-level view of one stored report
type View struct {
	Summary
	Filter  Filter  `json:"-"`
	Entries []Entry `json:"entries"`
}

// Links points at public pages for a package
type Links struct {
	NPM    string `json:"npm"`
	GitHub string `json:"github"`
}

// Detail is one package drilled into
type Detail struct {
	Entry
	ReportID string `json:"report_id"`
	Links    Links  `json:"links"`
}

// Summarize normalizes a stored report and aggregates its statistics
func Summarize(r models.StoredReport) Summary {
	return summarize(r, Parse(r.Data))
}

func summarize(r models.StoredReport, p Payload) Summary {
	a := aggregate.NewAggregator()
	for _, pkg := range p.Packages {
		a.Add(pkg)
	}
	stats := a.Stats()
	return Summary{
		ID:          r.ID,
		Title:       r.DisplayTitle(),
		CreatedAt:   r.CreatedAt,
		Shape:       p.Shape,
		Packages:    len(p.Packages),
		Stats:       stats,
		HighestRisk: aggregate.HighestRisk(stats),
		Flags:       a.Flags(),
	}
}

// Open builds the detail view of a report. Statistics always cover the
// full package list; only Entries are filtered.
func Open(r models.StoredReport, f Filter, q *Query) (*View, error) {
	p := Parse(r.Data)
	entries, err := Select(p.Packages, f, q)
	if err != nil {
		return nil, err
	}
	return &View{Summary: summarize(r, p), Filter: f, Entries: entries}, nil
}

// PackageAt returns the package at index in the report's canonical list
func PackageAt(r models.StoredReport, index int) (*Detail, error) {
	packages := ExtractPackages(r.Data)
	if index < 0 || index >= len(packages) {
		return nil, errs.NotFound("report.PackageAt",
			fmt.Errorf("package %d not found in report %s (%d packages)", index, r.ID, len(packages)))
	}
	pkg := packages[index]
	return &Detail{
		Entry:    NewEntry(index, pkg),
		ReportID: r.ID,
		Links:    LinksFor(pkg.Name),
	}, nil
}

// LinksFor builds registry and search links for a package name
func LinksFor(name string) Links {
	return Links{
		NPM:    "https://www.npmjs.com/package/" + name,
		GitHub: "https://github.com/search?q=" + url.QueryEscape(name) + "&type=repositories",
	}
}

// SortNewestFirst returns a copy of reports ordered by creation time,
// newest first. Reports created at the same instant keep their order.
func SortNewestFirst(reports []models.StoredReport) []models.StoredReport {
	sorted := slices.Clone(reports)
	slices.SortStableFunc(sorted, func(a, b models.StoredReport) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return sorted
}

// SummarizeAll summarizes reports newest first
func SummarizeAll(reports []models.StoredReport) []Summary {
	sorted := SortNewestFirst(reports)
	out := make([]Summary, len(sorted))
	for i, r := range sorted {
		out[i] = Summarize(r)
	}
	return out
}
