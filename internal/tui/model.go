// Package tui provides the Bubble Tea live view of a diagnosis session.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/joss/ddx/internal/render"
	"github.com/joss/ddx/internal/session"
	"github.com/joss/ddx/internal/transport"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Padding(0, 1)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Background(lipgloss.Color("236")).
			Padding(0, 1)

	differentialStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("62")).
				Padding(0, 1)
)

// Controller is the part of a session the model drives.
type Controller interface {
	Start(ctx context.Context, req transport.Request) error
	Cancel() bool
}

// Messages
type (
	viewMsg        session.View
	startFailedMsg struct{ err error }
)

// Model renders session views as they arrive.
type Model struct {
	ctx  context.Context
	ctrl Controller
	req  transport.Request

	view     session.View
	startErr error
	ready    bool
	quitting bool

	renderer *render.Renderer
	viewport viewport.Model
	spinner  spinner.Model
	width    int
	height   int
}

// NewModel creates a model that starts req on ctrl once the program runs.
func NewModel(ctx context.Context, ctrl Controller, req transport.Request) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		req:      req,
		renderer: render.New(true, 0),
		spinner:  s,
	}
}

// Init starts the session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.start())
}

func (m Model) start() tea.Cmd {
	ctx, ctrl, req := m.ctx, m.ctrl, m.req
	return func() tea.Msg {
		if err := ctrl.Start(ctx, req); err != nil {
			return startFailedMsg{err: err}
		}
		return nil
	}
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case viewMsg:
		m.view = session.View(msg)
		m.refresh()
		return m, nil

	case startFailedMsg:
		m.startErr = msg.err
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) streaming() bool {
	return m.view.State == session.Streaming
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if m.streaming() && m.ctrl.Cancel() {
			return m, nil
		}
		m.quitting = true
		return m, tea.Quit

	case "q", "esc":
		if !m.streaming() {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil

	case "g", "home":
		m.viewport.GotoTop()
		return m, nil

	case "G", "end":
		m.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.renderer.Width = msg.Width - 2

	if !m.ready {
		m.viewport = viewport.New(msg.Width, 1)
		m.ready = true
	}
	m.viewport.Width = msg.Width
	m.refresh()
	return m, nil
}

// refresh re-renders the transcript and resizes the viewport around the
// differential panel. Follows the tail unless the user scrolled up.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	follow := m.viewport.AtBottom()

	headerHeight := 2
	statusHeight := 1
	diffHeight := 0
	if panel := m.renderDifferential(); panel != "" {
		diffHeight = lipgloss.Height(panel)
	}
	vpHeight := m.height - headerHeight - statusHeight - diffHeight
	if vpHeight < 3 {
		vpHeight = 3
	}
	m.viewport.Height = vpHeight
	m.viewport.SetContent(m.renderer.Turns(m.view.Turns))

	if follow {
		m.viewport.GotoBottom()
	}
}
