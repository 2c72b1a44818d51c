package state

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Paintersrp/chatseek/internal/services/archive"
)

func TestFormatArchiveStatus(t *testing.T) {
	t.Parallel()

	last := time.Date(2024, time.March, 5, 17, 42, 0, 0, time.Local)
	got := formatArchiveStatus(archive.Stats{
		Root:        "/chats",
		Searches:    3,
		LastSearch:  last,
		LastElapsed: 1500 * time.Microsecond,
		LastPartial: true,
	})
	want := "Archive: /chats · searches 3 · last 17:42 in 2ms (partial)"
	if got != want {
		t.Fatalf("formatArchiveStatus mismatch: got %q, want %q", got, want)
	}
}

func TestFormatArchiveStatusOmitsLastSearchWhenZero(t *testing.T) {
	t.Parallel()

	got := formatArchiveStatus(archive.Stats{Root: "/chats"})
	if got != "Archive: /chats · searches 0" {
		t.Fatalf("unexpected status %q", got)
	}
}

func TestFormatArchiveStatusReportsLoadError(t *testing.T) {
	t.Parallel()

	got := formatArchiveStatus(archive.Stats{LoadError: errors.New("archive root does not exist")})
	if !strings.HasPrefix(got, "Archive: unavailable") {
		t.Fatalf("unexpected status %q", got)
	}
}

func TestStatusLineNilState(t *testing.T) {
	t.Parallel()

	var st *State
	if got := st.StatusLine(); got != "" {
		t.Fatalf("expected empty status, got %q", got)
	}
}
