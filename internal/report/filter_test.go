package report

import (
	"testing"

	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePackages = []models.PackageFinding{
	{Name: "Flask", Version: "2.0.1", RiskLevel: "High", Security: "2 High vulns, 1 low vuln", Freshness: "Significantly outdated"},
	{Name: "requests", Version: "2.31.0", RiskLevel: "Low", Security: "Some advisories", Freshness: "Up-to-date"},
	{Name: "flask-cors", Version: "3.0.0", RiskLevel: "Medium", Security: "1 medium vuln"},
	{Name: "numpy", Version: "1.26.0", RiskLevel: "Secure", Security: "No known vulnerabilities"},
	{Name: "mystery", Version: "0.1.0"},
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Package.Name
	}
	return out
}

func TestSelectByRisk(t *testing.T) {
	entries, err := Select(samplePackages, Filter{Risk: "High"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Flask"}, names(entries))
	assert.Equal(t, 0, entries[0].Index)
}

func TestSelectAll(t *testing.T) {
	for _, risk := range []string{"", RiskAll} {
		entries, err := Select(samplePackages, Filter{Risk: risk}, nil)
		require.NoError(t, err)
		assert.Len(t, entries, len(samplePackages))
	}
}

func TestSelectByQueryKeepsIndexes(t *testing.T) {
	entries, err := Select(samplePackages, Filter{Query: "FLASK"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Flask", "flask-cors"}, names(entries))
	assert.Equal(t, 2, entries[1].Index)
}

func TestSelectSecureFilterSkipsMissingRisk(t *testing.T) {
	entries, err := Select(samplePackages, Filter{Risk: "Secure"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"numpy"}, names(entries))
}

func TestSelectRejectsUnknownRisk(t *testing.T) {
	_, err := Select(samplePackages, Filter{Risk: "Critical"}, nil)
	require.Error(t, err)
	assert.True(t, errs.IsKind(err, errs.KindValidation))
}

func TestSelectWithQuery(t *testing.T) {
	q, err := CompileQuery(`estimated || status == "Critical update"`)
	require.NoError(t, err)

	entries, err := Select(samplePackages, Filter{}, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"Flask", "requests"}, names(entries))
}

func TestCompileQuery(t *testing.T) {
	tests := []struct {
		expr  string
		match []string
	}{
		{`risk == "Secure"`, []string{"numpy", "mystery"}},
		{`raw_risk == ""`, []string{"mystery"}},
		{`"1 Medium Vulns" in vulns`, []string{"flask-cors"}},
		{`name.startsWith("flask")`, []string{"flask-cors"}},
		{`index >= 3`, []string{"numpy", "mystery"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			q, err := CompileQuery(tt.expr)
			require.NoError(t, err)
			assert.Equal(t, tt.expr, q.String())

			entries, err := Select(samplePackages, Filter{}, q)
			require.NoError(t, err)
			assert.Equal(t, tt.match, names(entries))
		})
	}
}

func TestCompileQueryErrors(t *testing.T) {
	for _, expr := range []string{`risk ==`, `name`, `unknown_var == 1`} {
		t.Run(expr, func(t *testing.T) {
			_, err := CompileQuery(expr)
			require.Error(t, err)
			assert.True(t, errs.IsKind(err, errs.KindValidation))
		})
	}
}

func TestCompileQueryEmpty(t *testing.T) {
	q, err := CompileQuery("")
	require.NoError(t, err)
	assert.Nil(t, q)

	ok, err := q.Match(Entry{})
	require.NoError(t, err)
	assert.True(t, ok)
}
