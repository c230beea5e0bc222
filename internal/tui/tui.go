// Package tui is the interactive form: username and password fields, one
// button per step and one output pane per step.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/edward-yakop/go-tidemodel/internal/workflow"
	"github.com/pkg/errors"
)

const (
	paneLines     = 8
	minPaneWidth  = 40
	defaultWidth  = 80
	passwordLimit = 256
)

type focus int

const (
	focusUsername focus = iota
	focusPassword
	focusDownload
	focusClip
	focusValidate
	focusCount
)

var buttons = []struct {
	focus focus
	step  string
	label string
}{
	{focusDownload, workflow.StepDownload, "Download"},
	{focusClip, workflow.StepClip, "Clip"},
	{focusValidate, workflow.StepValidate, "Validate"},
}

type stepDoneMsg struct {
	step string
}

type refreshMsg struct{}

type Model struct {
	ctx      context.Context
	wf       *workflow.Workflow
	username textinput.Model
	password textinput.Model
	spinner  spinner.Model
	styles   styles
	focus    focus
	running  string
	width    int
}

func New(ctx context.Context, wf *workflow.Workflow, username string) *Model {
	m := &Model{
		ctx:     ctx,
		wf:      wf,
		styles:  newStyles(),
		width:   defaultWidth,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.spinner.Style = m.styles.status

	m.username = textinput.New()
	m.username.Placeholder = "AVISO username"
	m.username.Prompt = "> "
	m.username.SetValue(username)

	m.password = textinput.New()
	m.password.Placeholder = "AVISO password"
	m.password.Prompt = "> "
	m.password.EchoMode = textinput.EchoPassword
	m.password.EchoCharacter = '*'
	m.password.CharLimit = passwordLimit

	if username != "" {
		m.setFocus(focusPassword)
	} else {
		m.setFocus(focusUsername)
	}
	return m
}

func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) setFocus(f focus) {
	m.focus = (f + focusCount) % focusCount
	m.username.Blur()
	m.password.Blur()
	switch m.focus {
	case focusUsername:
		m.username.Focus()
	case focusPassword:
		m.password.Focus()
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case stepDoneMsg:
		if msg.step == m.running {
			m.running = ""
		}
		return m, nil

	case refreshMsg:
		return m, nil

	case spinner.TickMsg:
		if m.running == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "tab", "down":
			m.setFocus(m.focus + 1)
			return m, nil
		case "shift+tab", "up":
			m.setFocus(m.focus - 1)
			return m, nil
		case "enter":
			return m, m.activate()
		}
	}

	var cmd tea.Cmd
	switch m.focus {
	case focusUsername:
		m.username, cmd = m.username.Update(msg)
	case focusPassword:
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

// activate handles enter on the focused control.
func (m *Model) activate() tea.Cmd {
	switch m.focus {
	case focusUsername:
		m.setFocus(focusPassword)
		return nil
	case focusPassword:
		return m.trigger(workflow.StepDownload)
	}
	for _, b := range buttons {
		if b.focus == m.focus {
			return m.trigger(b.step)
		}
	}
	return nil
}

// trigger starts step unless another one is running.
func (m *Model) trigger(step string) tea.Cmd {
	if m.running != "" {
		return nil
	}
	m.running = step
	return tea.Batch(m.spinner.Tick, m.runStep(step))
}

func (m *Model) runStep(step string) tea.Cmd {
	username, password := m.username.Value(), m.password.Value()
	return func() tea.Msg {
		switch step {
		case workflow.StepDownload:
			_ = m.wf.Submit(m.ctx, username, password)
		case workflow.StepClip:
			_ = m.wf.ClipRegions(m.ctx)
		case workflow.StepValidate:
			m.wf.Validate(m.ctx)
		}
		return stepDoneMsg{step: step}
	}
}

func (m *Model) View() string {
	s := m.styles
	var b strings.Builder

	b.WriteString(s.title.Render("FES2014 tide model"))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render("Username"), m.username.View()))
	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render("Password"), m.password.View()))
	b.WriteString("\n")

	rendered := make([]string, 0, len(buttons))
	for _, btn := range buttons {
		style := s.button
		switch {
		case m.running != "":
			style = s.disabledButton
		case m.focus == btn.focus:
			style = s.focusedButton
		}
		rendered = append(rendered, style.Render(btn.label))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	b.WriteString("\n")

	if m.running != "" {
		b.WriteString(m.spinner.View() + s.status.Render(" Running "+m.running+"..."))
		b.WriteString("\n")
	}

	width := m.width - 4
	if width < minPaneWidth {
		width = minPaneWidth
	}
	b.WriteString(m.renderPane("Download", &m.wf.DownloadPane, width))
	b.WriteString(m.renderPane("Clip", &m.wf.ClipPane, width))
	b.WriteString(m.renderPane("Validate", &m.wf.ValidatePane, width))

	b.WriteString(s.help.Render("tab/shift+tab move • enter activate • esc quit"))
	b.WriteString("\n")
	return b.String()
}

func (m *Model) renderPane(title string, pane *workflow.Pane, width int) string {
	lines := pane.Lines()
	if len(lines) > paneLines {
		lines = lines[len(lines)-paneLines:]
	}
	body := m.styles.paneTitle.Render(title)
	if len(lines) > 0 {
		body += "\n" + strings.Join(lines, "\n")
	}
	return m.styles.pane.Width(width).Render(body) + "\n"
}

// Program runs the form in the terminal.
type Program struct {
	p *tea.Program
}

func NewProgram(ctx context.Context, wf *workflow.Workflow, username string) *Program {
	return &Program{
		p: tea.NewProgram(New(ctx, wf, username), tea.WithContext(ctx)),
	}
}

// Refresh redraws the form, safe to call from any goroutine.
func (p *Program) Refresh() {
	p.p.Send(refreshMsg{})
}

func (p *Program) Run() error {
	_, err := p.p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}
