package shell

import (
	"context"
	"io"
	"strings"
	"testing"

	"neptune/internal/config"
	"neptune/internal/kernel"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newModel(t *testing.T) Model {
	t.Helper()
	sh := New(Options{Kernel: kernel.New(config.DefaultKernelLimits()), Out: io.Discard})
	require.NoError(t, sh.Start(context.Background()))
	t.Cleanup(sh.Close)
	return NewModel(context.Background(), sh, NewStyles(LightTheme()))
}

func submit(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.textinput.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func joined(m Model) string {
	return strings.Join(m.Transcript(), "\n")
}

func TestModel_Submit(t *testing.T) {
	m := newModel(t)
	require.Len(t, m.Transcript(), 1)

	m, cmd := submit(t, m, "calc 1+2*3")
	assert.Nil(t, cmd)
	assert.Contains(t, joined(m), "Result: 7.000000")
	assert.Empty(t, m.textinput.Value())
}

func TestModel_PromptFollowsShell(t *testing.T) {
	m := newModel(t)
	m, _ = submit(t, m, "run")
	assert.Equal(t, promptRunChoice, m.textinput.Prompt)

	m, _ = submit(t, m, "b")
	m, _ = submit(t, m, "1")
	assert.Equal(t, promptExpression, m.textinput.Prompt)

	m, _ = submit(t, m, "0b101")
	assert.Contains(t, joined(m), "Result: 5.000000")
	assert.Equal(t, "> ", m.textinput.Prompt)
}

func TestModel_ClearDropsTranscript(t *testing.T) {
	m := newModel(t)
	m, _ = submit(t, m, "credits")
	require.Greater(t, len(m.Transcript()), 2)

	m, _ = submit(t, m, "clear")
	assert.Empty(t, m.Transcript())
}

func TestModel_ShutdownQuits(t *testing.T) {
	m := newModel(t)
	m, cmd := submit(t, m, "shutdown")
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestModel_CtrlCQuits(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_HelpRenderedWithGlamour(t *testing.T) {
	m := newModel(t)
	m, _ = submit(t, m, "help")
	out := joined(m)
	assert.Contains(t, out, "Neptune")
	assert.Contains(t, out, "processes")
	assert.NotContains(t, out, "List of commands:")
}

func TestModel_ResizeAndView(t *testing.T) {
	m := newModel(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	m = next.(Model)
	assert.Equal(t, 26, m.viewport.Height)

	view := m.View()
	assert.Contains(t, view, "Neptune OS")
	assert.Contains(t, view, "Ctrl+C: quit")
}
