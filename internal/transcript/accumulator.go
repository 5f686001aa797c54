package transcript

import (
	"time"

	"github.com/joss/ddx/internal/feed"
)

// Accumulator owns the turn list of one session. It is not safe for
// concurrent use; the session serializes access.
type Accumulator struct {
	turns        []*Turn
	current      *Turn
	currentAgent string
	hasAgent     bool

	now func() time.Time
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{now: time.Now}
}

// Apply folds one classification into the turn list and reports whether the
// list changed. Differential, empty and ignored lines are no-ops here.
func (a *Accumulator) Apply(c feed.Classification) bool {
	switch c.Kind {
	case feed.KindAgentBoundary:
		return a.startAgent(c.Text)
	case feed.KindStatus:
		a.AppendStatus(c.Text)
		return true
	case feed.KindContent:
		return a.appendContent(c.Text)
	default:
		return false
	}
}

// AppendStatus appends an independent status turn. The current agent turn is
// left untouched, so later content continues it.
func (a *Accumulator) AppendStatus(text string) {
	t := newTurn(StatusTurn, a.now())
	t.StatusText = text
	a.turns = append(a.turns, t)
}

// startAgent opens a new agent turn unless name is already the current agent,
// which collapses multi-line headers into one boundary.
func (a *Accumulator) startAgent(name string) bool {
	if a.hasAgent && name == a.currentAgent {
		return false
	}
	t := newTurn(AgentTurn, a.now())
	t.AgentName = name
	a.turns = append(a.turns, t)
	a.current = t
	a.currentAgent = name
	a.hasAgent = true
	return true
}

func (a *Accumulator) appendContent(text string) bool {
	if a.current == nil {
		a.startAgent(DefaultAgent)
	}
	t := a.current
	if t.Content == "" {
		t.Content = text
		return true
	}
	// Only the adjacent line is compared; redraws repeat the last rendered line.
	if t.lastLine() == text {
		return false
	}
	t.Content += LineSeparator + text
	return true
}

// Turns returns a copy of the turn list in arrival order.
func (a *Accumulator) Turns() []Turn {
	out := make([]Turn, len(a.turns))
	for i, t := range a.turns {
		out[i] = *t
	}
	return out
}

// Len returns the number of turns.
func (a *Accumulator) Len() int {
	return len(a.turns)
}

// CurrentAgent returns the name of the agent whose turn is open.
func (a *Accumulator) CurrentAgent() (string, bool) {
	return a.currentAgent, a.hasAgent
}

// Reset clears all turns and the current agent.
func (a *Accumulator) Reset() {
	a.turns = nil
	a.current = nil
	a.currentAgent = ""
	a.hasAgent = false
}
