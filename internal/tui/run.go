package tui

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joss/ddx/internal/session"
	"github.com/joss/ddx/internal/transport"
)

// bridge forwards session views into the running program. It is created
// before the program exists, so the program is attached later.
type bridge struct {
	mu      sync.Mutex
	program *tea.Program
}

func (b *bridge) attach(p *tea.Program) {
	b.mu.Lock()
	b.program = p
	b.mu.Unlock()
}

func (b *bridge) SessionUpdated(v session.View) {
	b.mu.Lock()
	p := b.program
	b.mu.Unlock()
	if p != nil {
		p.Send(viewMsg(v))
	}
}

// Run shows a live session for req until the user quits. A run still
// streaming at quit is canceled. Returns the final session view.
func Run(ctx context.Context, src transport.Source, req transport.Request, opts ...session.Option) (session.View, error) {
	b := &bridge{}
	sess := session.New(src, append(opts, session.WithObserver(b))...)

	model := NewModel(ctx, sess, req)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	b.attach(p)

	final, runErr := p.Run()

	sess.Cancel()
	view, err := sess.Wait(context.Background())
	if m, ok := final.(Model); ok && m.startErr != nil {
		return view, m.startErr
	}
	if runErr != nil && ctx.Err() == nil {
		return view, runErr
	}
	return view, err
}
