// Package report turns raw backend payloads into canonical package lists
// and the views built on top of them.
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/pkg/models"
)

// Shape is the discriminator of a raw payload
type Shape string

const (
	ShapeUnknown    Shape = "unknown"
	ShapeNarrative  Shape = "narrative"  // raw_output text with a fenced JSON block
	ShapeStructured Shape = "structured" // final_report.packages already typed
)

// Payload is a raw backend result resolved to one canonical shape.
// Err records why extraction came up empty; it is informational only.
type Payload struct {
	Shape       Shape
	Title       string
	GeneratedAt string
	Packages    []models.PackageFinding
	Err         error
}

var fencedJSON = regexp.MustCompile("(?s)```json\r?\n(.*?)\r?\n```")

var (
	errNotObject = errors.New("payload is not a JSON object")
	errNoFence   = errors.New("raw_output has no fenced json block")
)

type finalReport struct {
	ReportTitle string          `json:"report_title"`
	GeneratedAt string          `json:"generated_at"`
	Packages    json.RawMessage `json:"packages"`
}

type reportBody struct {
	FinalReport *finalReport    `json:"final_report"`
	ReportTitle string          `json:"report_title"`
	GeneratedAt string          `json:"generated_at"`
	Packages    json.RawMessage `json:"packages"`
}

type envelope struct {
	RawOutput   json.RawMessage `json:"raw_output"`
	FinalReport json.RawMessage `json:"final_report"`
}

// Parse resolves a raw payload. It never fails: malformed input yields
// zero packages with Err set.
func Parse(raw json.RawMessage) Payload {
	p := Payload{Shape: ShapeUnknown, Packages: []models.PackageFinding{}}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		p.Err = errs.Parse("report.Parse", errNotObject)
		return p
	}

	if truthy(env.RawOutput) {
		p.Shape = ShapeNarrative
		var text string
		if json.Unmarshal(env.RawOutput, &text) != nil {
			p.Err = errs.Parse("report.Parse", errors.New("raw_output is not a string"))
			return p
		}
		parseNarrative(&p, text)
		return p
	}

	var fr finalReport
	if present(env.FinalReport) && json.Unmarshal(env.FinalReport, &fr) == nil && present(fr.Packages) {
		p.Shape = ShapeStructured
		p.Title = fr.ReportTitle
		p.GeneratedAt = fr.GeneratedAt
		decodePackages(&p, fr.Packages)
		return p
	}

	p.Err = errs.Parse("report.Parse", errors.New("no recognizable report shape"))
	return p
}

// ExtractPackages returns the canonical package list of a raw payload,
// empty when the payload cannot be understood.
func ExtractPackages(raw json.RawMessage) []models.PackageFinding {
	return Parse(raw).Packages
}

func parseNarrative(p *Payload, text string) {
	m := fencedJSON.FindStringSubmatch(text)
	if m == nil {
		p.Err = errs.Parse("report.Parse", errNoFence)
		return
	}

	var body reportBody
	if err := json.Unmarshal([]byte(m[1]), &body); err != nil {
		p.Err = errs.Parse("report.Parse", fmt.Errorf("failed to parse fenced json: %w", err))
		return
	}

	p.Title = body.ReportTitle
	p.GeneratedAt = body.GeneratedAt
	packages := body.Packages
	if fr := body.FinalReport; fr != nil {
		if fr.ReportTitle != "" {
			p.Title = fr.ReportTitle
		}
		if fr.GeneratedAt != "" {
			p.GeneratedAt = fr.GeneratedAt
		}
		if present(fr.Packages) {
			packages = fr.Packages
		}
	}
	if !present(packages) {
		return
	}
	decodePackages(p, packages)
}

// decodePackages decodes each record on its own so one malformed entry
// cannot empty the whole list. Non-object records are skipped.
func decodePackages(p *Payload, raw json.RawMessage) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		p.Err = errs.Parse("report.Parse", fmt.Errorf("failed to decode packages: %w", err))
		return
	}

	packages := make([]models.PackageFinding, 0, len(items))
	skipped := 0
	for _, item := range items {
		var pkg models.PackageFinding
		if !present(item) || json.Unmarshal(item, &pkg) != nil {
			skipped++
			continue
		}
		packages = append(packages, pkg)
	}
	p.Packages = packages
	if skipped > 0 {
		p.Err = errs.Parse("report.Parse", fmt.Errorf("skipped %d malformed packages", skipped))
	}
}

func present(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && !bytes.Equal(raw, []byte("null"))
}

// truthy follows JavaScript truthiness: null, false, 0 and "" are falsy.
func truthy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if !present(raw) || bytes.Equal(raw, []byte("false")) || bytes.Equal(raw, []byte(`""`)) {
		return false
	}
	var n float64
	if json.Unmarshal(raw, &n) == nil {
		return n != 0
	}
	return true
}
