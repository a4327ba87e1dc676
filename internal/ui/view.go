package ui

import (
	"fmt"
	"strings"

	"tunepull/internal/progress"
)

func (m Model) viewHeader() string {
	done, total := 0, len(m.order)
	for _, id := range m.order {
		if m.states[id].done {
			done++
		}
	}
	title := m.styles.Title.Render("tunepull — YouTube music downloader")
	sub := m.styles.Subtitle.Render(fmt.Sprintf("Jobs: %d/%d done • q: cancel", done, total))
	return title + "\n" + sub
}

func (m Model) viewJobs() string {
	var b strings.Builder
	for _, id := range m.order {
		js := m.states[id]
		b.WriteString(m.viewJob(js))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewJob(js *jobState) string {
	stageStyle := m.styles.JobInfo
	switch js.stage {
	case progress.StageMetadata:
		stageStyle = m.styles.StageMeta
	case progress.StageDownloading:
		stageStyle = m.styles.StageDL
	case progress.StageConverting:
		stageStyle = m.styles.StageConv
	case progress.StageTagging:
		stageStyle = m.styles.StageTag
	case progress.StageRetrying:
		stageStyle = m.styles.Warning
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	case progress.StageCancelled:
		stageStyle = m.styles.Faint
	}

	left := m.styles.JobTitle.Render(truncate(js.label(), 48))
	stage := stageStyle.Render(string(js.stage))
	if js.attempt > 1 {
		stage += m.styles.Warning.Render(fmt.Sprintf(" (attempt %d)", js.attempt))
	}

	var right string
	switch {
	case js.percent >= 0 && js.percent <= 100:
		right = fmt.Sprintf("%s %5.1f%%", js.bar.ViewAs(js.percent/100.0), js.percent)
		if js.speed != "" {
			right += "  " + m.styles.Faint.Render(js.speed)
		}
	case js.done && js.stage == progress.StageCancelled:
		right = m.styles.Faint.Render("– cancelled")
	case js.done && js.err == nil:
		right = m.styles.Success.Render("✓ done")
	case js.err != nil:
		right = m.styles.Error.Render("✗ error")
	default:
		right = m.styles.Spinner.Render(js.spinner.View()) + " " + m.styles.Faint.Render("waiting")
	}

	line1 := fmt.Sprintf("%s  %s", left, stage)
	line2 := m.styles.JobInfo.Render(js.status)
	return m.styles.Box.Render(line1 + "\n" + right + "\n" + line2)
}

func (m Model) viewSummary() string {
	if m.report == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render(fmt.Sprintf(
		"Done: %d succeeded, %d failed, %d cancelled",
		m.report.Succeeded(), m.report.Failed(), m.report.Cancelled())))
	b.WriteString("\n")
	for _, id := range m.order {
		js := m.states[id]
		if js.done && js.err == nil && js.outputPath != "" {
			b.WriteString(m.styles.Success.Render("  • " + js.outputPath))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
