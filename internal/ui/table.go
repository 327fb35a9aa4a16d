// Package ui renders CLI-facing summaries for engine readiness.
package ui

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/markvista/markvista/internal/library"
)

// EngineStatus is one row of the readiness summary.
type EngineStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Origin string `json:"origin,omitempty"`
}

// ListOptions controls readiness summary output.
type ListOptions struct {
	JSON bool
}

// RenderEngineSummary prints the outcome of a ResolveAll run.
func RenderEngineSummary(summary library.Summary, opts ListOptions) error {
	statuses := make([]EngineStatus, 0, len(summary.Entries))
	for _, entry := range summary.Entries {
		statuses = append(statuses, EngineStatus{
			Name:   entry.Name,
			Status: string(entry.Status),
			Origin: string(entry.Origin),
		})
	}

	if opts.JSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")

		if err := encoder.Encode(statuses); err != nil {
			return fmt.Errorf("encode engine summary json: %w", err)
		}

		return nil
	}

	writer := table.NewWriter()
	writer.SetOutputMirror(os.Stdout)
	writer.SetStyle(table.StyleRounded)
	writer.AppendHeader(table.Row{"ENGINE", "STATUS", "ORIGIN"})

	for _, status := range statuses {
		writer.AppendRow(table.Row{status.Name, colorStatus(status.Status), status.Origin})
	}

	writer.Render()

	fmt.Printf("engines: ready=%d unavailable=%d\n", summary.Succeeded, summary.Failed)
	return nil
}

func colorStatus(status string) string {
	switch status {
	case string(library.StatusReady):
		return color.GreenString(status)
	case string(library.StatusFailed):
		return color.RedString(status)
	default:
		return color.YellowString(status)
	}
}
