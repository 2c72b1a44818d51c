package tree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Paintersrp/chatseek/internal/state/statetest"
)

func TestTreePrintsArchive(t *testing.T) {
	dir := statetest.WriteArchive(t, map[string]string{
		"chats/2024/deep.md": "x",
		"chats/top.md":       "x",
		"readme.md":          "x",
		"image.png":          "x",
	})

	cmd := NewCmdTree(statetest.New(t, dir))
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--depth", "1"})
	require.NoError(t, cmd.Execute())

	got := out.String()
	assert.Contains(t, got, "chats")
	assert.Contains(t, got, "readme.md")
	assert.NotContains(t, got, "image.png")
	assert.NotContains(t, got, "deep.md")
}
