package ui_test

import (
	"bytes"
	"testing"

	"github.com/devantler-tech/rollctl/pkg/cli/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetTerminalTitle_NonTerminal(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	ui.SetTerminalTitle(&out, "rollctl")

	assert.Empty(t, out.String())
}

func TestIsTerminalAndWidth_Buffer(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	assert.False(t, ui.IsTerminal(&out))
	assert.Equal(t, ui.DefaultWidth, ui.Width(&out))
}

func TestLiveView_AppendsWhenNotTerminal(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer

	view := ui.NewLiveView(&out)

	require.NoError(t, view.Render("phase: Progressing"))
	require.NoError(t, view.Render("phase: Progressing\n"))
	require.NoError(t, view.Render("phase: Healthy\n"))

	assert.Equal(t, "phase: Progressing\nphase: Healthy\n", out.String())
	assert.NotContains(t, out.String(), "\033[")
}
