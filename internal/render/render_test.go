package render

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acheong08/depguardian/internal/report"
	"github.com/acheong08/depguardian/pkg/models"
)

var sample = models.StoredReport{
	ID:        "r1",
	Title:     "Shop frontend",
	CreatedAt: time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC),
	Data: json.RawMessage(`{"final_report":{"packages":[
		{"name":"lodash","version":"4.17.20","risk_level":"High","security":"2 high vulns","freshness":"Outdated"},
		{"name":"react","version":"18.2.0","risk_level":"Medium","security":"advisory pending"},
		{"name":"left-pad","risk_level":"Secure","security":"No known vulnerabilities","popularity":{"last_day":12,"last_week":"80"}}
	]}}`),
}

func TestSummaries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summaries(&buf, report.SummarizeAll([]models.StoredReport{sample})))

	out := buf.String()
	assert.Contains(t, out, "TITLE")
	assert.Contains(t, out, "Shop frontend")
	assert.Contains(t, out, "High\n")
}

func TestSummariesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summaries(&buf, nil))
	assert.Equal(t, "No reports yet.\n", buf.String())
}

func TestView(t *testing.T) {
	v, err := report.Open(sample, report.Filter{}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, View(&buf, v))

	out := buf.String()
	assert.Contains(t, out, "Shop frontend (r1)")
	assert.Contains(t, out, HealthMessage(models.RiskHigh))
	assert.Contains(t, out, "33%")
	assert.Contains(t, out, "2 High Vulns")
	assert.Contains(t, out, "2 Medium Vulns*")
	assert.Contains(t, out, "estimated")
}

func TestViewNoMatches(t *testing.T) {
	v, err := report.Open(sample, report.Filter{Query: "zzz"}, nil)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, View(&buf, v))
	assert.Contains(t, buf.String(), "No packages match.")
}

func TestDetail(t *testing.T) {
	d, err := report.PackageAt(sample, 2)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Detail(&buf, d))

	out := buf.String()
	assert.Contains(t, out, "left-pad")
	assert.Contains(t, out, "day 12, week 80, month -")
	assert.Contains(t, out, "https://www.npmjs.com/package/left-pad")
}

func TestHealthMessage(t *testing.T) {
	assert.Contains(t, HealthMessage(models.RiskMedium), "should be addressed")
	assert.Contains(t, HealthMessage(models.RiskSecure), "good health")
}
