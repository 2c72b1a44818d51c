package cmd

import (
	"path/filepath"
	"testing"

	"github.com/Paintersrp/chatseek/internal/state/statetest"
)

func TestResolveArchivePath(t *testing.T) {
	archiveDir := t.TempDir()
	st := statetest.New(t, archiveDir)

	tests := map[string]struct {
		input   string
		want    string
		wantErr bool
	}{
		"absolute inside archive": {
			input: filepath.Join(archiveDir, "chats", "note.md"),
			want:  "chats/note.md",
		},
		"relative inside archive": {
			input: "note.md",
			want:  "note.md",
		},
		"relative with redundant segments": {
			input: "chats/../chats/./note.md",
			want:  "chats/note.md",
		},
		"escape attempt": {
			input:   "../evil.md",
			wantErr: true,
		},
		"absolute outside archive": {
			input:   filepath.Join(filepath.Dir(archiveDir), "evil.md"),
			wantErr: true,
		},
		"archive root": {
			input:   archiveDir,
			wantErr: true,
		},
		"empty": {
			input:   " ",
			wantErr: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := ResolveArchivePath(st, tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error but got none (result %q)", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
