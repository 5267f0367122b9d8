package report

import (
	"encoding/json"
	"testing"

	"github.com/acheong08/depguardian/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func narrative(t *testing.T, body string) json.RawMessage {
	t.Helper()
	text := "Here is the report:\n```json\n" + body + "\n```\nThanks."
	data, err := json.Marshal(map[string]string{"raw_output": text})
	require.NoError(t, err)
	return data
}

func TestParseNarrativeFinalReport(t *testing.T) {
	raw := narrative(t, `{"final_report":{"report_title":"Dependency Quality and Risk Report","generated_at":"2025-01-01T00:00:00Z","packages":[{"name":"flask","version":"2.0.1","risk_level":"High"},{"name":"requests","version":"2.31.0","risk_level":"Low"}]}}`)

	p := Parse(raw)
	assert.Equal(t, ShapeNarrative, p.Shape)
	assert.NoError(t, p.Err)
	assert.Equal(t, "Dependency Quality and Risk Report", p.Title)
	require.Len(t, p.Packages, 2)
	assert.Equal(t, "flask", p.Packages[0].Name)
	assert.Equal(t, "High", p.Packages[0].RiskLevel)
}

func TestParseNarrativeTopLevelPackages(t *testing.T) {
	raw := narrative(t, `{"report_title":"R","packages":[{"name":"lodash","version":"4.17.21"}]}`)

	p := Parse(raw)
	assert.Equal(t, ShapeNarrative, p.Shape)
	require.Len(t, p.Packages, 1)
	assert.Equal(t, "lodash", p.Packages[0].Name)
	assert.Equal(t, "R", p.Title)
}

func TestParseNarrativePrefersFinalReportEvenWhenEmpty(t *testing.T) {
	raw := narrative(t, `{"final_report":{"packages":[]},"packages":[{"name":"ignored"}]}`)

	p := Parse(raw)
	assert.Empty(t, p.Packages)
	assert.NoError(t, p.Err)
}

func TestParseNarrativeFirstBlockWins(t *testing.T) {
	raw, err := json.Marshal(map[string]string{
		"raw_output": "```json\n{\"packages\":[{\"name\":\"first\"}]}\n```\n```json\n{\"packages\":[{\"name\":\"second\"}]}\n```",
	})
	require.NoError(t, err)

	pkgs := ExtractPackages(raw)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "first", pkgs[0].Name)
}

func TestParseStructured(t *testing.T) {
	raw := json.RawMessage(`{"final_report":{"report_title":"T","packages":[{"name":"express","version":"4.18.2","risk_level":"Medium","popularity":{"last_day":"1M+"}}]}}`)

	p := Parse(raw)
	assert.Equal(t, ShapeStructured, p.Shape)
	assert.Equal(t, "T", p.Title)
	require.Len(t, p.Packages, 1)
	assert.Equal(t, "express", p.Packages[0].Name)
	require.NotNil(t, p.Packages[0].Popularity)
}

func TestParseKeepsPackagesAroundLooseFields(t *testing.T) {
	raw := json.RawMessage(`{"final_report":{"packages":[{"name":"a","risk_level":"High"},{"name":"b","popularity":"N/A"},{"name":"c","version":4}]}}`)

	p := Parse(raw)
	assert.Equal(t, ShapeStructured, p.Shape)
	assert.NoError(t, p.Err)
	require.Len(t, p.Packages, 3)
	assert.Equal(t, "High", p.Packages[0].RiskLevel)
	assert.Equal(t, "b", p.Packages[1].Name)
	assert.Nil(t, p.Packages[1].Popularity)
	assert.Equal(t, "4", p.Packages[2].Version)
}

func TestParseSkipsNonObjectPackages(t *testing.T) {
	p := Parse(narrative(t, `{"packages":[{"name":"a"},"oops",null,{"name":"b"}]}`))
	assert.Equal(t, ShapeNarrative, p.Shape)
	require.Len(t, p.Packages, 2)
	assert.Equal(t, "a", p.Packages[0].Name)
	assert.Equal(t, "b", p.Packages[1].Name)
	assert.True(t, errs.IsKind(p.Err, errs.KindParse))
}

func TestParseTruthyRawOutputIsNarrative(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		narrative bool
	}{
		{"number", `{"raw_output":42,"final_report":{"packages":[{"name":"a"}]}}`, true},
		{"true", `{"raw_output":true,"final_report":{"packages":[{"name":"a"}]}}`, true},
		{"object", `{"raw_output":{},"final_report":{"packages":[{"name":"a"}]}}`, true},
		{"zero", `{"raw_output":0,"final_report":{"packages":[{"name":"a"}]}}`, false},
		{"false", `{"raw_output":false,"final_report":{"packages":[{"name":"a"}]}}`, false},
		{"empty", `{"raw_output":"","final_report":{"packages":[{"name":"a"}]}}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(json.RawMessage(tt.raw))
			if tt.narrative {
				assert.Equal(t, ShapeNarrative, p.Shape)
				assert.Empty(t, p.Packages)
				assert.True(t, errs.IsKind(p.Err, errs.KindParse))
				return
			}
			assert.Equal(t, ShapeStructured, p.Shape)
			assert.Len(t, p.Packages, 1)
		})
	}
}

func TestParseDoneFallbackPayload(t *testing.T) {
	p := Parse(json.RawMessage(`{"raw_output":"not json"}`))
	assert.Equal(t, ShapeNarrative, p.Shape)
	assert.Empty(t, p.Packages)
	assert.True(t, errs.IsKind(p.Err, errs.KindParse))
}

func TestExtractPackagesIsTotal(t *testing.T) {
	inputs := []string{
		``,
		`null`,
		`[]`,
		`"string"`,
		`42`,
		`{`,
		`{}`,
		`{"raw_output":""}`,
		`{"raw_output":123}`,
		`{"raw_output":"no fence here"}`,
		"{\"raw_output\":\"```json\\n{broken\\n```\"}",
		"{\"raw_output\":\"```json\\n{\\\"packages\\\":\\\"nope\\\"}\\n```\"}",
		`{"final_report":null}`,
		`{"final_report":"text"}`,
		`{"final_report":{"packages":{"name":"x"}}}`,
		`{"final_report":{"packages":[1,2,3]}}`,
	}

	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			assert.NotPanics(t, func() {
				got := ExtractPackages(json.RawMessage(in))
				assert.NotNil(t, got)
				assert.Empty(t, got)
			})
		})
	}
}
