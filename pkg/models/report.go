package models

import (
	"encoding/json"
	"strings"
	"time"
)

// DefaultReportTitle is shown for reports stored without a title
const DefaultReportTitle = "Dependency Report"

// StoredReport is the persisted unit: one completed run
type StoredReport struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at"`
	Data      json.RawMessage `json:"data"` // raw backend payload, stored verbatim
}

// NewStoredReport wraps a terminal payload into a report record.
// The id is left empty for the store to assign.
func NewStoredReport(payload json.RawMessage, now time.Time) StoredReport {
	return StoredReport{
		Title:     "Report " + now.Local().Format("2006-01-02 15:04:05"),
		CreatedAt: now,
		Data:      payload,
	}
}

// DisplayTitle returns the title, defaulted when blank
func (r StoredReport) DisplayTitle() string {
	if strings.TrimSpace(r.Title) == "" {
		return DefaultReportTitle
	}
	return r.Title
}

// ReportStats counts packages per risk tier.
// Total is the package count; the tier counters only cover packages
// whose raw risk level is one of the four tiers.
type ReportStats struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
	Secure int `json:"secure"`
	Total  int `json:"total"`
}

// Count returns the counter for a tier
func (s ReportStats) Count(level RiskLevel) int {
	switch level {
	case RiskHigh:
		return s.High
	case RiskMedium:
		return s.Medium
	case RiskLow:
		return s.Low
	case RiskSecure:
		return s.Secure
	default:
		return 0
	}
}

// Share returns the fraction of all packages in a tier
func (s ReportStats) Share(level RiskLevel) float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Count(level)) / float64(s.Total)
}
