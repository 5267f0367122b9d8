package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/acheong08/depguardian/internal/channel"
	"github.com/acheong08/depguardian/internal/manifest"
	"github.com/acheong08/depguardian/internal/render"
	"github.com/acheong08/depguardian/internal/report"
	"github.com/acheong08/depguardian/pkg/models"
)

var stageText = map[channel.Stage]string{
	channel.StageParser:   "Parsing manifest",
	channel.StageFetcher:  "Fetching package metadata",
	channel.StageAnalyzer: "Analyzing risk",
	channel.StageReporter: "Writing report",
}

func newSubmitCmd(a *app) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "submit <file>",
		Short: "Analyze a manifest and store the report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.submit(cmd, args[0], title)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Report title (default: Report <date>)")
	return cmd
}

func (a *app) submit(cmd *cobra.Command, path, title string) error {
	out := cmd.OutOrStdout()

	file, err := channel.ReadFile(path)
	if err != nil {
		return err
	}
	if err := manifest.Validate(file.Name, file.ContentType); err != nil {
		return err
	}

	info := manifest.Inspect(file.Name, file.ContentType, file.Content)
	if info.Declared > 0 {
		fmt.Fprintf(out, "Submitting %s (%s, %d declared dependencies)\n", info.Name, info.Kind, info.Declared)
	} else {
		fmt.Fprintf(out, "Submitting %s (%s)\n", info.Name, info.Kind)
	}

	client := channel.NewClient(a.cfg.BackendURL)
	client.StreamTimeout = a.cfg.StreamTimeout
	client.Logger = a.logger

	run, err := client.Submit(cmd.Context(), file)
	if err != nil {
		return err
	}
	defer run.Cancel()

	for ev := range run.Events() {
		if ev.Type != channel.EventStep {
			continue
		}
		text, ok := stageText[ev.Stage]
		if !ok {
			text = ev.Label
		}
		fmt.Fprintf(out, "  > %s\n", text)
	}

	payload, err := run.Wait()
	if err != nil {
		return err
	}

	record := models.NewStoredReport(payload, time.Now())
	if title != "" {
		record.Title = title
	}
	stored, err := a.store.Append(cmd.Context(), record)
	if err != nil {
		return fmt.Errorf("failed to store report: %w", err)
	}

	fmt.Fprintln(out)
	if err := render.Summaries(out, []report.Summary{report.Summarize(stored)}); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nView it with: depguardian reports show %s\n", stored.ID)
	return nil
}
