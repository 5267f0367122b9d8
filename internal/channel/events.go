package channel

import (
	"encoding/json"
	"strings"
)

// EventType names an event relayed from the backend stream
type EventType string

const (
	EventStep  EventType = "step"  // pipeline stage update
	EventDone  EventType = "done"  // terminal payload
	EventError EventType = "error" // terminal failure
)

// Stage is a canonical pipeline stage identifier
type Stage string

const (
	StageParser   Stage = "parser_agent"
	StageFetcher  Stage = "fetcher_agent"
	StageAnalyzer Stage = "AnalyzerAgent"
	StageReporter Stage = "ReporterAgent"
)

// UnknownErrorMessage is used when an error event carries no message
const UnknownErrorMessage = "Unknown error occurred"

// Event is one notification of a run: a stage, the final payload or an error
type Event struct {
	Type    EventType       `json:"type"`
	Stage   Stage           `json:"stage,omitempty"`
	Label   string          `json:"label,omitempty"` // stage label as sent by the backend
	Payload json.RawMessage `json:"payload,omitempty"`
	Message string          `json:"message,omitempty"`
}

// NormalizeStage maps arbitrary backend stage naming to a canonical stage.
// Labels matching nothing fall back to the parser stage; blank labels stay blank.
func NormalizeStage(label string) Stage {
	s := strings.ToLower(strings.TrimSpace(label))
	switch {
	case s == "":
		return ""
	case strings.Contains(s, "parser"):
		return StageParser
	case strings.Contains(s, "fetcher"):
		return StageFetcher
	case strings.Contains(s, "analyz"):
		return StageAnalyzer
	case strings.Contains(s, "report"):
		return StageReporter
	default:
		return StageParser
	}
}

// NewStageEvent builds a step event from a raw label
func NewStageEvent(label string) Event {
	return Event{Type: EventStep, Stage: NormalizeStage(label), Label: label}
}

// NewDoneEvent builds the terminal event. Data that is not valid JSON is
// wrapped as {"raw_output": data} instead of failing the run.
func NewDoneEvent(data string) Event {
	return Event{Type: EventDone, Payload: DonePayload(data)}
}

// NewErrorEvent builds the terminal failure event from raw event data
func NewErrorEvent(data string) Event {
	return Event{Type: EventError, Message: ErrorMessage(data)}
}

// DonePayload returns data as a JSON payload, wrapping it when it does not parse
func DonePayload(data string) json.RawMessage {
	if json.Valid([]byte(data)) {
		return json.RawMessage(data)
	}
	wrapped, _ := json.Marshal(map[string]string{"raw_output": data})
	return wrapped
}

// ErrorMessage extracts the message of an error event: the "message" field
// of a JSON object, or the raw text verbatim.
func ErrorMessage(data string) string {
	trimmed := strings.TrimSpace(data)
	if trimmed == "" {
		return UnknownErrorMessage
	}

	var obj struct {
		Message any `json:"message"`
	}
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil {
		if msg, ok := obj.Message.(string); ok && msg != "" {
			return msg
		}
		return UnknownErrorMessage
	}

	var s string
	if err := json.Unmarshal([]byte(trimmed), &s); err == nil && s != "" {
		return s
	}
	return data
}
