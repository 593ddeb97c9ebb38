// Package tui hosts a flow in the terminal. The model is the flow's
// responder: every transition updates what View renders.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petrijr/waypoint"
	"github.com/petrijr/waypoint/internal/wizard"
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	stepStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Bold(true)
	anchorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F7B801"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	modalStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// Model renders the current node of a Runner and turns key presses into
// navigation.
type Model struct {
	runner *waypoint.Runner
	input  textinput.Model

	current   *waypoint.Node
	status    string
	done      bool
	abandoned bool
	result    waypoint.PassedArgs
}

var (
	_ tea.Model          = (*Model)(nil)
	_ waypoint.Responder = (*Model)(nil)
)

// New creates a model and attaches it to runner as the host responder.
func New(runner *waypoint.Runner) *Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Focus()

	m := &Model{runner: runner, input: ti}
	runner.Attach(m)
	return m
}

// Start launches the flow with args. A flow where nothing loads is done
// straight away.
func (m *Model) Start(args waypoint.PassedArgs) {
	m.done = false
	node := m.runner.Launch(args, func(out waypoint.PassedArgs) { m.result = out })
	m.abandoned = false
	if node == nil {
		m.done = true
	}
}

// Result returns the completion args and whether the run was abandoned.
func (m *Model) Result() (waypoint.PassedArgs, bool) {
	return m.result, m.abandoned
}

// Done reports whether the run has ended.
func (m *Model) Done() bool {
	return m.done || m.abandoned
}

// Current returns the node on display.
func (m *Model) Current() (waypoint.Node, bool) {
	if m.current == nil {
		return waypoint.Node{}, false
	}
	return *m.current, true
}

func (m *Model) Launch(to waypoint.Node) { m.show(to) }

func (m *Model) Proceed(to, from waypoint.Node) { m.show(to) }

func (m *Model) BackUp(from, to waypoint.Node) { m.show(to) }

func (m *Model) Abandon(info waypoint.WorkflowInfo, onFinish func()) {
	m.abandoned = true
	m.current = nil
	onFinish()
}

func (m *Model) Complete(info waypoint.WorkflowInfo, display *waypoint.Node, args waypoint.PassedArgs) {
	m.done = true
	m.result = args
	m.current = display
}

func (m *Model) show(to waypoint.Node) {
	m.current = &to
	m.status = ""
	m.input.SetValue("")
	m.input.Placeholder = ""
	if ws, ok := wizard.As(to.Step); ok {
		m.input.Placeholder = ws.Placeholder()
	}
}

func (m *Model) Init() tea.Cmd {
	if m.Done() {
		return tea.Quit
	}
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.Type {
	case tea.KeyCtrlC:
		m.runner.Abandon()
		return m, tea.Quit
	case tea.KeyEnter:
		m.submit()
	case tea.KeyEsc:
		m.backUp()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	if m.Done() {
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) step() (wizard.Step, bool) {
	if m.current == nil {
		return nil, false
	}
	return wizard.As(m.current.Step)
}

func (m *Model) submit() {
	ws, ok := m.step()
	if !ok {
		m.status = "this step takes no input"
		return
	}
	if err := ws.Submit(m.input.Value()); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) backUp() {
	ws, ok := m.step()
	if !ok {
		return
	}
	err := ws.BackUp()
	switch {
	case errors.Is(err, waypoint.ErrCannotBackUp):
		m.status = "already at the first step"
	case err != nil:
		m.status = err.Error()
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.runner.Flow.Name()))
	b.WriteString("\n\n")

	switch {
	case m.abandoned:
		b.WriteString(errorStyle.Render("Abandoned."))
		b.WriteString("\n")
		return b.String()
	case m.done:
		b.WriteString(doneStyle.Render("Done."))
		b.WriteString("\n")
		if m.current != nil {
			b.WriteString(stepStyle.Render("Last step: " + m.current.StepName()))
			b.WriteString("\n")
		}
		return b.String()
	case m.current == nil:
		return b.String()
	}

	n := m.current
	b.WriteString(stepStyle.Render(fmt.Sprintf("Step %d of %d · %s", n.Position+1, m.runner.Flow.Len(), n.StepName())))
	if !n.Loaded {
		b.WriteString(" ")
		b.WriteString(anchorStyle.Render("(answered earlier)"))
	}
	b.WriteString("\n\n")

	var body strings.Builder
	if ws, ok := m.step(); ok {
		body.WriteString(promptStyle.Render(ws.Prompt()))
		if ws.Kind() != wizard.KindNote {
			body.WriteString("\n")
			body.WriteString(m.input.View())
		}
	} else {
		body.WriteString(promptStyle.Render(n.StepName()))
	}
	if n.Definition.Style() == waypoint.LaunchStyleModal {
		b.WriteString(modalStyle.Render(body.String()))
	} else {
		b.WriteString(body.String())
	}
	b.WriteString("\n")

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("enter: continue · esc: back · ctrl+c: abandon"))
	b.WriteString("\n")
	return b.String()
}
