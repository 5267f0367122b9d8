// Package classify derives badges from a single package finding.
//
// Everything here is pure: the same finding always yields the same
// classification, so views re-derive badges on every read instead of
// storing them.
package classify

import (
	"regexp"
	"strings"

	"github.com/acheong08/depguardian/pkg/models"
)

// Status is the freshness badge of a package
type Status string

const (
	StatusNone           Status = ""
	StatusCriticalUpdate Status = "Critical update"
	StatusOutdated       Status = "Outdated"
	StatusMinorUpdate    Status = "Minor update"
	StatusUpToDate       Status = "Up-to-date"
)

// VulnBadge is one vulnerability badge
type VulnBadge struct {
	Tier  models.RiskLevel `json:"tier"`
	Count string           `json:"count,omitempty"`
	Text  string           `json:"text"`
	// Estimated marks placeholder counts implied by the risk level alone.
	Estimated bool `json:"estimated,omitempty"`
}

// Classification is the derived view of a finding
type Classification struct {
	RiskLevel  models.RiskLevel `json:"risk_level"`
	VulnBadges []VulnBadge      `json:"vuln_badges"`
	Status     Status           `json:"status,omitempty"`
}

// Estimated reports whether any badge is a placeholder
func (c Classification) Estimated() bool {
	for _, b := range c.VulnBadges {
		if b.Estimated {
			return true
		}
	}
	return false
}

// Texts returns the badge texts in order
func (c Classification) Texts() []string {
	texts := make([]string, len(c.VulnBadges))
	for i, b := range c.VulnBadges {
		texts[i] = b.Text
	}
	return texts
}

var vulnPattern = regexp.MustCompile(`(?i)\b(\d+)\s+(high|medium|low)\s+vuln`)

// Classify resolves the risk tier and derives vulnerability and status badges
func Classify(pkg models.PackageFinding) Classification {
	level := pkg.Risk()
	return Classification{
		RiskLevel:  level,
		VulnBadges: VulnBadges(pkg.Security, level),
		Status:     StatusOf(pkg.Freshness),
	}
}

// StatusOf maps freshness text to a status badge. First match wins.
func StatusOf(freshness string) Status {
	f := strings.ToLower(freshness)
	switch {
	case strings.Contains(f, "significantly outdated"), strings.Contains(f, "critical"):
		return StatusCriticalUpdate
	case strings.Contains(f, "outdated"):
		return StatusOutdated
	case strings.Contains(f, "minor"):
		return StatusMinorUpdate
	case strings.Contains(f, "up-to-date"):
		return StatusUpToDate
	default:
		return StatusNone
	}
}

// VulnBadges derives vulnerability badges from security text. When the text
// carries no counts at all, a placeholder implied by level is emitted instead.
func VulnBadges(security string, level models.RiskLevel) []VulnBadge {
	var out []VulnBadge
	if strings.Contains(strings.ToLower(security), "no known") {
		out = append(out, VulnBadge{Tier: models.RiskSecure, Text: "Secure"})
	}

	matches := vulnPattern.FindAllStringSubmatch(security, -1)
	for _, m := range matches {
		out = append(out, countBadge(m[1], strings.ToLower(m[2])))
	}
	if len(matches) > 0 {
		return out
	}

	if b, ok := fallbackBadge(level); ok {
		out = append(out, b)
	}
	return out
}

func countBadge(count, tier string) VulnBadge {
	switch tier {
	case "high":
		return VulnBadge{Tier: models.RiskHigh, Count: count, Text: count + " High Vulns"}
	case "medium":
		return VulnBadge{Tier: models.RiskMedium, Count: count, Text: count + " Medium Vulns"}
	default:
		return VulnBadge{Tier: models.RiskLow, Count: count, Text: count + " Low Vuln"}
	}
}

// fallbackBadge returns placeholder counts implied by the risk level alone.
// They are synthetic and always marked Estimated.
func fallbackBadge(level models.RiskLevel) (VulnBadge, bool) {
	switch level {
	case models.RiskHigh:
		return VulnBadge{Tier: models.RiskHigh, Text: "1 High, 2 Low Vulns", Estimated: true}, true
	case models.RiskMedium:
		return VulnBadge{Tier: models.RiskMedium, Text: "2 Medium Vulns", Estimated: true}, true
	case models.RiskLow:
		return VulnBadge{Tier: models.RiskLow, Text: "1 Low Vuln", Estimated: true}, true
	default:
		return VulnBadge{}, false
	}
}
