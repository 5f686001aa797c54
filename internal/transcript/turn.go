// Package transcript folds classified feed lines into an ordered list of turns
// and tracks the latest differential diagnosis snapshot.
package transcript

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TurnKind distinguishes agent message blocks from status notices.
type TurnKind string

const (
	AgentTurn  TurnKind = "agent"
	StatusTurn TurnKind = "status"
)

// DefaultAgent names the turn synthesized for content that arrives before any
// agent header.
const DefaultAgent = "Orchestrator"

// LineSeparator joins the lines of an agent turn's content.
const LineSeparator = "\n"

// Turn is one reconstructed block of output.
type Turn struct {
	ID         string    `json:"id"`
	Kind       TurnKind  `json:"kind"`
	AgentName  string    `json:"agent_name,omitempty"`
	Content    string    `json:"content,omitempty"`
	StatusText string    `json:"status_text,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Lines returns the content split on the line separator.
func (t Turn) Lines() []string {
	if t.Content == "" {
		return nil
	}
	return strings.Split(t.Content, LineSeparator)
}

// lastLine returns the final content line, or "" for empty content.
func (t *Turn) lastLine() string {
	i := strings.LastIndex(t.Content, LineSeparator)
	if i < 0 {
		return t.Content
	}
	return t.Content[i+len(LineSeparator):]
}

func newTurn(kind TurnKind, now time.Time) *Turn {
	return &Turn{
		ID:        uuid.New().String(),
		Kind:      kind,
		CreatedAt: now,
	}
}
