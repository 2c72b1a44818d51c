package state

import (
	"fmt"
	"strings"
	"time"

	"github.com/Paintersrp/chatseek/internal/services/archive"
)

// StatusLine summarizes the archive service for the serve banner and the
// settings show command.
func (s *State) StatusLine() string {
	if s == nil || s.Archive == nil {
		return ""
	}
	return formatArchiveStatus(s.Archive.Stats())
}

func formatArchiveStatus(stats archive.Stats) string {
	if stats.LoadError != nil {
		return fmt.Sprintf("Archive: unavailable (%v)", stats.LoadError)
	}

	parts := []string{fmt.Sprintf("Archive: %s", stats.Root)}
	parts = append(parts, fmt.Sprintf("searches %d", stats.Searches))
	if !stats.LastSearch.IsZero() {
		last := fmt.Sprintf("last %s in %s", formatClock(stats.LastSearch), stats.LastElapsed.Round(time.Millisecond))
		if stats.LastPartial {
			last += " (partial)"
		}
		parts = append(parts, last)
	}

	return strings.Join(parts, " · ")
}

func formatClock(t time.Time) string {
	return t.Local().Format("15:04")
}
