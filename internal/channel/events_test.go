package channel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeStage(t *testing.T) {
	tests := []struct {
		label    string
		expected Stage
	}{
		{"parser_agent", StageParser},
		{"ParserAgent", StageParser},
		{"fetcher", StageFetcher},
		{"  Fetcher_Agent ", StageFetcher},
		{"analyzer", StageAnalyzer},
		{"AnalyzingAgent", StageAnalyzer},
		{"reporter", StageReporter},
		{"report_builder", StageReporter},
		{"something_else", StageParser},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeStage(tt.label))
		})
	}
}

func TestDonePayload(t *testing.T) {
	assert.JSONEq(t, `{"raw_output":"not json"}`, string(DonePayload("not json")))
	assert.JSONEq(t, `{"final_report":{"packages":[]}}`, string(DonePayload(`{"final_report":{"packages":[]}}`)))
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		expected string
	}{
		{"object", `{"message":"Agent crashed"}`, "Agent crashed"},
		{"object without message", `{"detail":"x"}`, UnknownErrorMessage},
		{"empty", "", UnknownErrorMessage},
		{"plain text", "backend exploded", "backend exploded"},
		{"json string", `"quota exceeded"`, "quota exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ErrorMessage(tt.data))
		})
	}
}

func TestNewStageEventKeepsLabel(t *testing.T) {
	ev := NewStageEvent("FetcherAgent")
	assert.Equal(t, EventStep, ev.Type)
	assert.Equal(t, StageFetcher, ev.Stage)
	assert.Equal(t, "FetcherAgent", ev.Label)
}
