package models

import (
	"bytes"
	"encoding/json"
)

// RiskLevel is the coarse risk tier assigned to a package
type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
	RiskSecure RiskLevel = "Secure"
)

// RiskLevels lists every tier, highest first
var RiskLevels = []RiskLevel{RiskHigh, RiskMedium, RiskLow, RiskSecure}

// ParseRiskLevel resolves a raw backend value to a tier.
// Matching is exact and case sensitive; ok is false for anything else.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(s) {
	case RiskHigh:
		return RiskHigh, true
	case RiskMedium:
		return RiskMedium, true
	case RiskLow:
		return RiskLow, true
	case RiskSecure:
		return RiskSecure, true
	default:
		return "", false
	}
}

// Rank returns an integer rank for comparison (Secure=0, High=3).
func (r RiskLevel) Rank() int {
	switch r {
	case RiskHigh:
		return 3
	case RiskMedium:
		return 2
	case RiskLow:
		return 1
	default:
		return 0
	}
}

func (r RiskLevel) String() string {
	return string(r)
}

// Count is a download count. The backend sends either rounded strings
// ("1.4M+") or plain numbers; both decode to their text form.
type Count string

func (c *Count) UnmarshalJSON(data []byte) error {
	*c = Count(looseText(data))
	return nil
}

// Popularity holds download counts over three windows
type Popularity struct {
	LastDay   Count `json:"last_day"`
	LastWeek  Count `json:"last_week"`
	LastMonth Count `json:"last_month"`
}

// PackageFinding is one dependency inside a report, as emitted by the backend
type PackageFinding struct {
	Name       string      `json:"name"`
	Version    string      `json:"version"`
	RiskLevel  string      `json:"risk_level,omitempty"` // raw value, may be missing or bogus
	Security   string      `json:"security,omitempty"`
	Freshness  string      `json:"freshness,omitempty"`
	License    string      `json:"license,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
	Popularity *Popularity `json:"popularity,omitempty"`
}

// UnmarshalJSON decodes a finding field by field. A loosely typed field
// keeps its JSON text instead of failing the record; only a non-object
// record is an error.
func (p *PackageFinding) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*p = PackageFinding{
		Name:       looseText(fields["name"]),
		Version:    looseText(fields["version"]),
		RiskLevel:  looseText(fields["risk_level"]),
		Security:   looseText(fields["security"]),
		Freshness:  looseText(fields["freshness"]),
		License:    looseText(fields["license"]),
		Suggestion: looseText(fields["suggestion"]),
	}
	if raw := bytes.TrimSpace(fields["popularity"]); len(raw) > 0 && raw[0] == '{' {
		var pop Popularity
		if json.Unmarshal(raw, &pop) == nil {
			p.Popularity = &pop
		}
	}
	return nil
}

// Risk returns the resolved tier, Secure when the raw value is missing or unknown
func (p PackageFinding) Risk() RiskLevel {
	if level, ok := ParseRiskLevel(p.RiskLevel); ok {
		return level
	}
	return RiskSecure
}

// looseText renders any JSON value as display text: strings unquoted,
// null or missing as empty, everything else as its compact JSON form.
func looseText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if json.Unmarshal(raw, &s) == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if json.Compact(&buf, raw) != nil {
		return string(raw)
	}
	return buf.String()
}
