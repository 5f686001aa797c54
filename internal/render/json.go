package render

import (
	"encoding/json"

	"github.com/joss/ddx/internal/session"
	"github.com/joss/ddx/internal/transcript"
)

// sessionJSON is the --json shape of a view.
type sessionJSON struct {
	SessionID    string                   `json:"session_id"`
	State        session.State            `json:"state"`
	Turns        []transcript.Turn        `json:"turns"`
	Differential *transcript.Differential `json:"differential,omitempty"`
	Error        string                   `json:"error,omitempty"`
}

// JSON encodes v as indented JSON. Turns is never null.
func JSON(v session.View) ([]byte, error) {
	out := sessionJSON{
		SessionID:    v.SessionID,
		State:        v.State,
		Turns:        v.Turns,
		Differential: v.Differential,
	}
	if out.Turns == nil {
		out.Turns = []transcript.Turn{}
	}
	if v.Err != nil {
		out.Error = v.Err.Error()
	}
	return json.MarshalIndent(out, "", "  ")
}
