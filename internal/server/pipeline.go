package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/acheong08/depguardian/internal/channel"
	"github.com/acheong08/depguardian/internal/manifest"
	"github.com/acheong08/depguardian/internal/report"
	"github.com/acheong08/depguardian/internal/store"
	"github.com/acheong08/depguardian/pkg/models"
)

// ProgressSender interface for sending progress updates
type ProgressSender interface {
	SendMessage(msg Message)
	SendLog(message, level string)
	SendError(message string, err error)
}

// Pipeline submits one manifest, relays its stages and stores the result
type Pipeline struct {
	client *channel.Client
	store  store.Store
	sender ProgressSender
	logger *slog.Logger
	now    func() time.Time
}

// NewPipeline creates a new pipeline instance
func NewPipeline(client *channel.Client, s store.Store, sender ProgressSender, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		client: client,
		store:  s,
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// log sends a log message both to the WebSocket client and to the server log
func (p *Pipeline) log(message, level string) {
	p.sender.SendLog(message, level)

	switch level {
	case "warning":
		p.logger.Warn(message)
	case "error":
		p.logger.Error(message)
	default:
		p.logger.Info(message)
	}
}

// Run executes one analysis. Nothing is stored unless the backend completes.
func (p *Pipeline) Run(ctx context.Context, payload *AnalyzePayload) (*report.Summary, error) {
	file := payload.File()
	if err := manifest.Validate(file.Name, file.ContentType); err != nil {
		return nil, err
	}

	info := manifest.Inspect(file.Name, file.ContentType, file.Content)
	p.sender.SendMessage(NewManifestMessage(info))
	if info.Declared > 0 {
		p.log(fmt.Sprintf("Analyzing %s (%s, %d declared dependencies)", info.Name, info.Kind, info.Declared), "info")
	} else {
		p.log(fmt.Sprintf("Analyzing %s (%s)", info.Name, info.Kind), "info")
	}

	run, err := p.client.Submit(ctx, file)
	if err != nil {
		return nil, err
	}
	defer run.Cancel()

	for ev := range run.Events() {
		if ev.Type == channel.EventStep {
			p.sender.SendMessage(NewStageMessage(ev))
		}
	}

	data, err := run.Wait()
	if err != nil {
		return nil, err
	}

	stored, err := p.store.Append(ctx, models.NewStoredReport(data, p.now()))
	if err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	summary := report.Summarize(stored)
	if summary.Shape == report.ShapeUnknown {
		p.log("Backend result contained no package list", "warning")
	}
	p.log(fmt.Sprintf("Report %s stored: %d packages, %s risk", stored.ID, summary.Packages, summary.HighestRisk), "success")
	p.sender.SendMessage(NewReportMessage(summary))
	return &summary, nil
}
