package shell

import (
	"bytes"
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model is the bubbletea front end of a Shell. Shell output is captured and
// appended to a scrolling transcript.
type Model struct {
	ctx        context.Context
	shell      *Shell
	out        *bytes.Buffer
	styles     Styles
	textinput  textinput.Model
	viewport   viewport.Model
	transcript []string
	width      int
	quitting   bool
}

// NewModel wraps sh. The shell's output is redirected into the model, which
// shows the welcome banner itself, and help is rendered with glamour.
func NewModel(ctx context.Context, sh *Shell, styles Styles) Model {
	out := &bytes.Buffer{}
	sh.SetOutput(out)
	sh.SetHelpRenderer(MarkdownRenderer(styles.Theme, 80))

	ti := textinput.New()
	ti.Placeholder = "Type a command (Enter to run, Ctrl+C to exit)"
	ti.Focus()
	ti.Prompt = sh.Prompt()
	ti.CharLimit = 256
	ti.Width = 80
	ti.PromptStyle = styles.Prompt
	ti.TextStyle = styles.Input

	m := Model{
		ctx:       ctx,
		shell:     sh,
		out:       out,
		styles:    styles,
		textinput: ti,
		viewport:  viewport.New(80, 20),
		width:     80,
	}
	m.transcript = append(m.transcript, m.styles.Output.Render(Welcome))
	m.refresh()
	return m
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			return m.submit()
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.textinput.Width = max(msg.Width-lipgloss.Width(m.textinput.Prompt)-1, 10)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		m.shell.SetHelpRenderer(MarkdownRenderer(m.styles.Theme, msg.Width-4))
		m.refresh()
		return m, nil
	}

	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	return m, cmd
}

func (m Model) submit() (tea.Model, tea.Cmd) {
	line := m.textinput.Value()
	m.textinput.Reset()

	m.transcript = append(m.transcript,
		m.styles.Prompt.Render(m.shell.Prompt())+m.styles.Input.Render(line))

	m.out.Reset()
	more, err := m.shell.Execute(m.ctx, line)
	m.appendOutput(m.out.String())
	if err != nil {
		m.transcript = append(m.transcript, m.styles.Error.Render("Error: "+err.Error()))
	}

	m.textinput.Prompt = m.shell.Prompt()
	m.refresh()

	if !more {
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

// appendOutput adds shell output to the transcript. A clear sequence drops
// everything before it.
func (m *Model) appendOutput(s string) {
	if i := strings.LastIndex(s, ClearSequence); i >= 0 {
		m.transcript = nil
		s = s[i+len(ClearSequence):]
	}
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return
	}
	m.transcript = append(m.transcript, m.styles.Output.Render(s))
}

func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.transcript, "\n"))
	m.viewport.GotoBottom()
}

// Transcript returns the rendered transcript lines.
func (m Model) Transcript() []string {
	return m.transcript
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	header := m.styles.Header.Render("Neptune OS")
	footer := m.styles.Footer.Render("Enter: run  PgUp/PgDn: scroll  Ctrl+C: quit")
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.styles.RenderDivider(m.width),
		m.textinput.View(),
		footer,
	)
}

// RunTUI runs the shell full screen until it is shut down or ctx is done.
func RunTUI(ctx context.Context, sh *Shell, styles Styles) error {
	p := tea.NewProgram(NewModel(ctx, sh, styles), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
