package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/fjell-io/gauntlet/internal/pipeline"
)

var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
)

// printSummary writes the per-stage outcome list and the final verdict.
// Styling is skipped when w is not a terminal so piped output stays plain.
func printSummary(w io.Writer, res *pipeline.Result) {
	styled := false
	if f, ok := w.(*os.File); ok {
		styled = isatty.IsTerminal(f.Fd())
	}
	render := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	fmt.Fprintln(w)
	for _, sr := range res.Stages {
		dur := render(dimStyle, "("+sr.Duration.Round(time.Millisecond).String()+")")
		switch {
		case !sr.Failed():
			fmt.Fprintf(w, "%s %s %s\n", render(passStyle, "✓"), sr.Stage, dur)
		case sr.Kind == pipeline.FailExecution:
			fmt.Fprintf(w, "%s %s %s exit status %d\n", render(failStyle, "✗"), sr.Stage, dur, sr.ExitCode)
		default:
			fmt.Fprintf(w, "%s %s %s %v\n", render(failStyle, "✗"), sr.Stage, dur, sr.Err)
		}
	}

	total := res.Duration.Round(time.Millisecond)
	if res.Success() {
		fmt.Fprintf(w, "\n%s %d stages in %s\n", render(passStyle, "PASS"), len(res.Stages), total)
	} else {
		fmt.Fprintf(w, "\n%s at %s (%d stages attempted, %s)\n",
			render(failStyle, "FAIL"), res.FailedStage, len(res.Stages), total)
	}
}
