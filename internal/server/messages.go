package server

import (
	"encoding/json"
	"fmt"

	"github.com/acheong08/depguardian/internal/channel"
	"github.com/acheong08/depguardian/internal/errs"
	"github.com/acheong08/depguardian/internal/manifest"
	"github.com/acheong08/depguardian/internal/report"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	// Client -> Server
	TypeAnalyze MessageType = "analyze" // Client sends a manifest to analyze
	TypePing    MessageType = "ping"    // Keep-alive

	// Server -> Client
	TypeManifest MessageType = "manifest" // Detected manifest kind and dependency count
	TypeStage    MessageType = "stage"    // Backend pipeline stage changed
	TypeLog      MessageType = "log"      // Log messages for terminal
	TypeReport   MessageType = "report"   // Stored report summary, analysis complete
	TypeError    MessageType = "error"    // Error message
	TypePong     MessageType = "pong"
)

// Message is the base WebSocket message structure
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// AnalyzePayload sent by client to start analysis
type AnalyzePayload struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type,omitempty"`
	Content     string `json:"content"` // Raw manifest content
}

// File converts the payload into a submission
func (p AnalyzePayload) File() channel.File {
	return channel.File{Name: p.FileName, ContentType: p.ContentType, Content: []byte(p.Content)}
}

// StagePayload for stage indicator updates
type StagePayload struct {
	Stage channel.Stage `json:"stage"`
	Label string        `json:"label"` // Stage name as sent by the backend
}

// LogPayload for terminal output
type LogPayload struct {
	Message string `json:"message"`         // Log message
	Level   string `json:"level,omitempty"` // "info", "success", "warning", "error"
}

// ReportPayload sent when the report has been stored
type ReportPayload struct {
	ID      string         `json:"id"`
	Summary report.Summary `json:"summary"`
}

// ErrorPayload for error messages
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"` // error kind, e.g. "validation" or "busy"
}

// Helper functions to create messages

func NewManifestMessage(info manifest.Info) Message {
	payloadBytes, _ := json.Marshal(info)
	return Message{Type: TypeManifest, Payload: payloadBytes}
}

func NewStageMessage(ev channel.Event) Message {
	payload := StagePayload{
		Stage: ev.Stage,
		Label: ev.Label,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeStage, Payload: payloadBytes}
}

func NewLogMessage(message, level string) Message {
	payload := LogPayload{
		Message: message,
		Level:   level,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeLog, Payload: payloadBytes}
}

func NewReportMessage(summary report.Summary) Message {
	payload := ReportPayload{
		ID:      summary.ID,
		Summary: summary,
	}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeReport, Payload: payloadBytes}
}

func NewErrorMessage(message string, err error) Message {
	errMsg := message
	if err != nil {
		errMsg = fmt.Sprintf("%s: %v", message, err)
	}
	payload := ErrorPayload{Message: errMsg, Code: string(errs.KindOf(err))}
	payloadBytes, _ := json.Marshal(payload)
	return Message{Type: TypeError, Payload: payloadBytes}
}

// ParseAnalyzePayload extracts the analyze payload from a message
func ParseAnalyzePayload(msg Message) (*AnalyzePayload, error) {
	var payload AnalyzePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse analyze payload: %w", err)
	}
	return &payload, nil
}
