// Package render writes report views as plain text tables.
package render

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/acheong08/depguardian/internal/aggregate"
	"github.com/acheong08/depguardian/internal/report"
	"github.com/acheong08/depguardian/pkg/models"
)

const timeLayout = "2006-01-02 15:04"

// HealthMessage describes a project by its highest risk tier
func HealthMessage(level models.RiskLevel) string {
	switch level {
	case models.RiskHigh:
		return "This project has several critical vulnerabilities that require immediate attention."
	case models.RiskMedium:
		return "This project has some vulnerabilities that should be addressed."
	default:
		return "This project is in good health with minimal vulnerabilities."
	}
}

var flagText = map[string]string{
	aggregate.FlagHighRisk:        "high risk packages present",
	aggregate.FlagCriticalUpdates: "critical updates pending",
	aggregate.FlagEstimatedCounts: "some vulnerability counts are estimated (*)",
	aggregate.FlagUnclassified:    "some packages have no risk level",
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Summaries writes the report list
func Summaries(w io.Writer, summaries []report.Summary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(w, "No reports yet.")
		return err
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tCREATED\tDEPS\tHIGH\tMEDIUM\tLOW\tRISK")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			s.ID, s.Title, formatTime(s.CreatedAt), s.Packages,
			s.Stats.High, s.Stats.Medium, s.Stats.Low, s.HighestRisk)
	}
	return tw.Flush()
}

// View writes the health overview followed by the filtered package table
func View(w io.Writer, v *report.View) error {
	fmt.Fprintf(w, "%s (%s)\n", v.Title, v.ID)
	fmt.Fprintf(w, "Created %s, %d deps, %s risk\n", formatTime(v.CreatedAt), v.Packages, v.HighestRisk)
	fmt.Fprintln(w, HealthMessage(v.HighestRisk))
	fmt.Fprintln(w)

	tw := newTable(w)
	for _, level := range models.RiskLevels {
		fmt.Fprintf(tw, "%s\t%d\t%.0f%%\n", level, v.Stats.Count(level), v.Stats.Share(level)*100)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, flag := range v.Flags {
		fmt.Fprintf(w, "! %s\n", flagDescription(flag))
	}
	fmt.Fprintln(w)

	if len(v.Entries) == 0 {
		_, err := fmt.Fprintln(w, "No packages match.")
		return err
	}
	return Entries(w, v.Entries)
}

// Entries writes one row per package. Estimated badges carry a trailing *.
func Entries(w io.Writer, entries []report.Entry) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "#\tNAME\tVERSION\tRISK\tVULNS\tSTATUS")
	for _, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.Index, e.Package.Name, orDash(e.Package.Version), e.Classification.RiskLevel,
			orDash(badges(e)), orDash(string(e.Classification.Status)))
	}
	return tw.Flush()
}

// Detail writes everything known about one package
func Detail(w io.Writer, d *report.Detail) error {
	pkg := d.Package
	tw := newTable(w)
	fmt.Fprintf(tw, "Package\t%s\n", pkg.Name)
	fmt.Fprintf(tw, "Version\t%s\n", orDash(pkg.Version))
	fmt.Fprintf(tw, "Risk\t%s\n", d.Classification.RiskLevel)
	fmt.Fprintf(tw, "Vulnerabilities\t%s\n", orDash(badges(d.Entry)))
	fmt.Fprintf(tw, "Status\t%s\n", orDash(string(d.Classification.Status)))
	fmt.Fprintf(tw, "Security\t%s\n", orDash(pkg.Security))
	fmt.Fprintf(tw, "Freshness\t%s\n", orDash(pkg.Freshness))
	fmt.Fprintf(tw, "License\t%s\n", orDash(pkg.License))
	if pkg.Popularity != nil {
		fmt.Fprintf(tw, "Downloads\tday %s, week %s, month %s\n",
			orDash(string(pkg.Popularity.LastDay)),
			orDash(string(pkg.Popularity.LastWeek)),
			orDash(string(pkg.Popularity.LastMonth)))
	}
	fmt.Fprintf(tw, "Suggestion\t%s\n", orDash(pkg.Suggestion))
	fmt.Fprintf(tw, "npm\t%s\n", d.Links.NPM)
	fmt.Fprintf(tw, "GitHub\t%s\n", d.Links.GitHub)
	return tw.Flush()
}

func badges(e report.Entry) string {
	texts := make([]string, 0, len(e.Classification.VulnBadges))
	for _, b := range e.Classification.VulnBadges {
		if b.Estimated {
			texts = append(texts, b.Text+"*")
			continue
		}
		texts = append(texts, b.Text)
	}
	return strings.Join(texts, ", ")
}

func flagDescription(flag string) string {
	if text, ok := flagText[flag]; ok {
		return text
	}
	return flag
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
