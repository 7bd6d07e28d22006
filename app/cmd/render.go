package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/lexcodex/toolgate/persistence"
	"github.com/lexcodex/toolgate/pipeline"
	"github.com/lexcodex/toolgate/transport"
)

var (
	colorPrimary = lipgloss.Color("39")
	colorSuccess = lipgloss.Color("42")
	colorError   = lipgloss.Color("196")
	colorDim     = lipgloss.Color("241")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	okStyle = lipgloss.NewStyle().
		Foreground(colorSuccess)

	failStyle = lipgloss.NewStyle().
			Foreground(colorError)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorDim)
)

// renderRun formats a pipeline run report for the terminal.
func renderRun(name string, run *pipeline.Run) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("Pipeline %s", name)))
	b.WriteString("\n")
	for _, step := range run.Steps {
		switch {
		case step.Skip != pipeline.SkipNone:
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				dimStyle.Render("○"), step.Name, dimStyle.Render("skipped: "+string(step.Skip))))
		case step.Result != nil && step.Result.Success:
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				okStyle.Render("✓"), step.Name, dimStyle.Render(step.Duration.String())))
		default:
			detail := ""
			if step.Result != nil {
				detail = step.Result.Error
			}
			b.WriteString(fmt.Sprintf("  %s %s %s\n",
				failStyle.Render("✗"), step.Name, dimStyle.Render(detail)))
		}
	}
	for _, msg := range run.Errors {
		b.WriteString(failStyle.Render("  ! "+msg) + "\n")
	}
	verdict := okStyle.Render("succeeded")
	if !run.Success {
		verdict = failStyle.Render("failed")
	}
	b.WriteString(fmt.Sprintf("%s in %s\n", verdict, run.TotalDuration))
	return b.String()
}

// renderMetrics summarizes invocation counters.
func renderMetrics(snapshot transport.MetricsSnapshot) string {
	return dimStyle.Render(fmt.Sprintf("calls=%d total=%s efficiency=%d",
		snapshot.CallCount, snapshot.TotalDuration, snapshot.EstimatedEfficiencyUnits))
}

// renderCheck formats a yes/no probe line.
func renderCheck(label string, ok bool, detail string) string {
	mark := failStyle.Render("✗")
	if ok {
		mark = okStyle.Render("✓")
	}
	line := fmt.Sprintf("  %s %s", mark, label)
	if detail != "" {
		line += " " + dimStyle.Render(detail)
	}
	return line
}

// renderRunRecord formats one line of run history.
func renderRunRecord(record persistence.RunRecord) string {
	mark := failStyle.Render("✗")
	if record.Success {
		mark = okStyle.Render("✓")
	}
	return fmt.Sprintf("  %s %s  %s  %s  %s",
		mark, record.ID[:8], record.Name,
		fmt.Sprintf("%dms", record.DurationMs),
		dimStyle.Render(record.CreatedAt.Format("2006-01-02 15:04:05")))
}
