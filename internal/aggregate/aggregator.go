package aggregate

import (
	"sort"

	"github.com/acheong08/depguardian/internal/classify"
	"github.com/acheong08/depguardian/pkg/models"
)

// Risk flags raised over a package list
const (
	FlagHighRisk        = "high_risk_present"
	FlagCriticalUpdates = "critical_updates"
	FlagEstimatedCounts = "estimated_counts"
	FlagUnclassified    = "unclassified_packages"
)

// Aggregator accumulates per-tier statistics over packages
type Aggregator struct {
	stats           models.ReportStats
	criticalUpdates int
	estimated       int
}

// NewAggregator creates a new Aggregator instance
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add counts one package. Packages whose raw risk level is missing or
// unknown add to Total but to no tier counter.
func (a *Aggregator) Add(pkg models.PackageFinding) {
	a.stats.Total++

	if level, ok := models.ParseRiskLevel(pkg.RiskLevel); ok {
		switch level {
		case models.RiskHigh:
			a.stats.High++
		case models.RiskMedium:
			a.stats.Medium++
		case models.RiskLow:
			a.stats.Low++
		case models.RiskSecure:
			a.stats.Secure++
		}
	}

	c := classify.Classify(pkg)
	if c.Status == classify.StatusCriticalUpdate {
		a.criticalUpdates++
	}
	if c.Estimated() {
		a.estimated++
	}
}

// Stats returns the statistics accumulated so far
func (a *Aggregator) Stats() models.ReportStats {
	return a.stats
}

// Flags returns the risk flags raised by the packages added so far, sorted
func (a *Aggregator) Flags() []string {
	flags := []string{}
	if a.stats.High > 0 {
		flags = append(flags, FlagHighRisk)
	}
	if a.criticalUpdates > 0 {
		flags = append(flags, FlagCriticalUpdates)
	}
	if a.estimated > 0 {
		flags = append(flags, FlagEstimatedCounts)
	}
	if Unclassified(a.stats) > 0 {
		flags = append(flags, FlagUnclassified)
	}
	sort.Strings(flags)
	return flags
}

// ComputeStats counts packages per risk tier
func ComputeStats(packages []models.PackageFinding) models.ReportStats {
	a := NewAggregator()
	for _, pkg := range packages {
		a.Add(pkg)
	}
	return a.Stats()
}

// HighestRisk returns the first tier with a nonzero count, in the order
// High > Medium > Low > Secure. Secure when every count is zero.
func HighestRisk(stats models.ReportStats) models.RiskLevel {
	switch {
	case stats.High > 0:
		return models.RiskHigh
	case stats.Medium > 0:
		return models.RiskMedium
	case stats.Low > 0:
		return models.RiskLow
	default:
		return models.RiskSecure
	}
}

// Unclassified returns how many packages fell into no tier counter
func Unclassified(stats models.ReportStats) int {
	n := stats.Total - stats.High - stats.Medium - stats.Low - stats.Secure
	if n < 0 {
		return 0
	}
	return n
}
