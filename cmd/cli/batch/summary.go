package batch

import (
	"fmt"
	"strings"
	"time"

	"github.com/tyemirov/taskrun/pkg/runner"
)

// RenderSummaryLine returns the summary line printed after a batch run.
func RenderSummaryLine(state *runner.SharedState, totalTasks int, elapsed time.Duration) string {
	if state == nil || totalTasks == 0 {
		return ""
	}

	parts := []string{fmt.Sprintf("Summary: total.tasks=%d", totalTasks)}
	parts = append(parts, fmt.Sprintf("completed=%d", len(state.Completed)))
	parts = append(parts, fmt.Sprintf("errors=%d", len(state.Errors)))
	parts = append(parts, fmt.Sprintf("timed_out=%d", len(state.TimedOut)))
	parts = append(parts, fmt.Sprintf("retries=%d", len(state.Retries)))
	parts = append(parts, fmt.Sprintf("duration_human=%s", humanizeDuration(elapsed)))
	parts = append(parts, fmt.Sprintf("duration_ms=%d", elapsed.Milliseconds()))

	return strings.Join(parts, " ")
}

func humanizeDuration(elapsed time.Duration) string {
	if elapsed <= 0 {
		return "0s"
	}
	switch {
	case elapsed < time.Second:
		return elapsed.Round(time.Millisecond).String()
	case elapsed < time.Minute:
		return elapsed.Round(10 * time.Millisecond).String()
	default:
		return elapsed.Round(time.Second).String()
	}
}
