package report

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"

	"github.com/acheong08/depguardian/internal/classify"
	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/pkg/models"
)

// RiskAll disables risk filtering
const RiskAll = "All"

// Entry is one package of a report with its position in the canonical list
type Entry struct {
	Index          int                     `json:"index"`
	Package        models.PackageFinding   `json:"package"`
	Classification classify.Classification `json:"classification"`
}

// NewEntry classifies a package at the given index
func NewEntry(index int, pkg models.PackageFinding) Entry {
	return Entry{Index: index, Package: pkg, Classification: classify.Classify(pkg)}
}

// Filter narrows a package list by raw risk tier and name
type Filter struct {
	Risk  string // "" or "All" keeps every tier
	Query string // case-insensitive substring of the package name
}

// Validate rejects risk values that are neither "All" nor a tier
func (f Filter) Validate() error {
	if f.Risk == "" || f.Risk == RiskAll {
		return nil
	}
	if _, ok := models.ParseRiskLevel(strings.TrimSpace(f.Risk)); !ok {
		return errs.Validation("report.Filter", fmt.Errorf("unknown risk level %q", f.Risk))
	}
	return nil
}

// Match reports whether a package passes the filter
func (f Filter) Match(pkg models.PackageFinding) bool {
	if f.Risk != "" && f.Risk != RiskAll && pkg.RiskLevel != strings.TrimSpace(f.Risk) {
		return false
	}
	if f.Query != "" {
		fold := cases.Fold()
		if !strings.Contains(fold.String(pkg.Name), fold.String(f.Query)) {
			return false
		}
	}
	return true
}

// Select returns the entries passing the filter and, when set, the query.
// Entries keep their index in the unfiltered list.
func Select(packages []models.PackageFinding, f Filter, q *Query) ([]Entry, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	entries := []Entry{}
	for i, pkg := range packages {
		if !f.Match(pkg) {
			continue
		}
		entry := NewEntry(i, pkg)
		if q != nil {
			ok, err := q.Match(entry)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
