package aggregate

import (
	"testing"

	"github.com/acheong08/depguardian/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestComputeStats(t *testing.T) {
	packages := []models.PackageFinding{
		{Name: "a", RiskLevel: "High"},
		{Name: "b", RiskLevel: "High"},
		{Name: "c", RiskLevel: "Medium"},
		{Name: "d", RiskLevel: "Low"},
		{Name: "e", RiskLevel: "Secure"},
	}

	stats := ComputeStats(packages)
	assert.Equal(t, models.ReportStats{High: 2, Medium: 1, Low: 1, Secure: 1, Total: 5}, stats)
	assert.Equal(t, stats.Total, stats.High+stats.Medium+stats.Low+stats.Secure)
	assert.Zero(t, Unclassified(stats))
}

func TestComputeStatsIgnoresUnknownRiskLevels(t *testing.T) {
	packages := []models.PackageFinding{
		{Name: "a", RiskLevel: "High"},
		{Name: "b"},
		{Name: "c", RiskLevel: "critical"},
	}

	stats := ComputeStats(packages)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.High)
	assert.Equal(t, 2, Unclassified(stats))
}

func TestComputeStatsComparesTiersExactly(t *testing.T) {
	packages := []models.PackageFinding{
		{Name: "a", RiskLevel: " High "},
		{Name: "b", RiskLevel: "Low\n"},
	}

	stats := ComputeStats(packages)
	assert.Equal(t, 2, stats.Total)
	assert.Zero(t, stats.High)
	assert.Zero(t, stats.Low)
	assert.Equal(t, 2, Unclassified(stats))
}

func TestComputeStatsEmpty(t *testing.T) {
	assert.Equal(t, models.ReportStats{}, ComputeStats(nil))
}

func TestHighestRisk(t *testing.T) {
	tests := []struct {
		name     string
		stats    models.ReportStats
		expected models.RiskLevel
	}{
		{"all zero", models.ReportStats{}, models.RiskSecure},
		{"secure only", models.ReportStats{Secure: 4}, models.RiskSecure},
		{"low beats secure", models.ReportStats{Low: 1, Secure: 9}, models.RiskLow},
		{"medium beats low", models.ReportStats{Medium: 1, Low: 5}, models.RiskMedium},
		{"high beats all", models.ReportStats{High: 1, Medium: 3, Low: 3, Secure: 3}, models.RiskHigh},
		{"unclassified only", models.ReportStats{Total: 3}, models.RiskSecure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HighestRisk(tt.stats))
		})
	}
}

func TestAggregatorFlags(t *testing.T) {
	a := NewAggregator()
	a.Add(models.PackageFinding{Name: "a", RiskLevel: "High", Security: "2 high vulns"})
	a.Add(models.PackageFinding{Name: "b", RiskLevel: "Low", Freshness: "Significantly outdated"})
	a.Add(models.PackageFinding{Name: "c"})

	assert.Equal(t, []string{FlagCriticalUpdates, FlagEstimatedCounts, FlagHighRisk, FlagUnclassified}, a.Flags())
}

func TestAggregatorFlagsClean(t *testing.T) {
	a := NewAggregator()
	a.Add(models.PackageFinding{Name: "a", RiskLevel: "Secure", Security: "No known vulnerabilities"})

	assert.Empty(t, a.Flags())
}
