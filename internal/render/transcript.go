// Package render provides output formatting for terminal and JSON consumption.
package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fatih/color"

	"github.com/joss/ddx/internal/feed"
	"github.com/joss/ddx/internal/session"
	xstrings "github.com/joss/ddx/internal/strings"
	"github.com/joss/ddx/internal/transcript"
)

var boldMarkup = regexp.MustCompile(`\*\*(.+?)\*\*`)

// Renderer handles transcript formatting.
type Renderer struct {
	// Pretty enables colors, rules and bold markup.
	Pretty bool
	// Width wraps content lines when > 0.
	Width int
}

// New creates a new renderer.
func New(pretty bool, width int) *Renderer {
	return &Renderer{Pretty: pretty, Width: width}
}

// Transcript formats every turn of v followed by the differential table.
func (r *Renderer) Transcript(v session.View) string {
	var sb strings.Builder

	if len(v.Turns) == 0 {
		sb.WriteString("No output yet\n")
	}
	sb.WriteString(r.Turns(v.Turns))

	if v.Differential != nil {
		sb.WriteString("\n")
		sb.WriteString(r.Differential(v.Differential))
	}

	if v.State.Terminal() {
		sb.WriteString("\n")
		sb.WriteString(r.Summary(v))
	}
	return sb.String()
}

// Turns formats turns in order, separating agent blocks with a blank line.
func (r *Renderer) Turns(turns []transcript.Turn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 && t.Kind == transcript.AgentTurn {
			sb.WriteString("\n")
		}
		r.formatTurn(&sb, t)
	}
	return sb.String()
}

func (r *Renderer) formatTurn(sb *strings.Builder, t transcript.Turn) {
	switch t.Kind {
	case transcript.StatusTurn:
		if r.Pretty {
			fmt.Fprintf(sb, "%s\n", color.HiBlackString(t.StatusText))
		} else {
			fmt.Fprintf(sb, "[status] %s\n", t.StatusText)
		}

	case transcript.AgentTurn:
		if r.Pretty {
			sb.WriteString(color.CyanString("▌ " + t.AgentName + "\n"))
		} else {
			fmt.Fprintf(sb, "[%s]\n", t.AgentName)
		}
		for _, line := range t.Lines() {
			line = r.markup(line)
			if r.Width > 2 {
				line = xstrings.WordWrap(line, r.Width-2)
			}
			for _, wrapped := range strings.Split(line, "\n") {
				fmt.Fprintf(sb, "  %s\n", wrapped)
			}
		}
	}
}

// Differential formats the ranked snapshot, or its raw text when no pairs
// were extracted.
func (r *Renderer) Differential(d *transcript.Differential) string {
	if d == nil {
		return ""
	}

	var sb strings.Builder
	title := "Differential Diagnosis"
	if r.Pretty {
		sb.WriteString(color.YellowString(title + "\n"))
		sb.WriteString(strings.Repeat("─", 40) + "\n")
	} else {
		sb.WriteString(title + ":\n")
	}

	if len(d.Items) == 0 {
		fmt.Fprintf(&sb, "  %s\n", feed.StripANSI(d.RawText))
		return sb.String()
	}

	labelWidth := 0
	for _, item := range d.Items {
		labelWidth = max(labelWidth, xstrings.RuneLen(item.Diagnosis))
	}
	for i, item := range d.Items {
		pad := strings.Repeat(" ", labelWidth-xstrings.RuneLen(item.Diagnosis))
		if r.Pretty {
			fmt.Fprintf(&sb, "  %d. %s%s  %s\n", i+1, item.Diagnosis, pad, color.GreenString(item.Probability))
		} else {
			fmt.Fprintf(&sb, "  %d. %s%s  %s\n", i+1, item.Diagnosis, pad, item.Probability)
		}
	}
	return sb.String()
}

// Summary formats the final state line of a run.
func (r *Renderer) Summary(v session.View) string {
	msg := fmt.Sprintf("%s %s (%d turns)", StateIcon(v.State), v.State, len(v.Turns))
	if v.Err != nil {
		msg += ": " + v.Err.Error()
	}
	if !r.Pretty {
		return msg + "\n"
	}
	switch v.State {
	case session.Completed:
		return color.GreenString(msg) + "\n"
	case session.Canceled:
		return color.YellowString(msg) + "\n"
	default:
		return color.RedString(msg) + "\n"
	}
}

// Classification formats one classifier result for the classify command.
func (r *Renderer) Classification(c feed.Classification) string {
	kind := fmt.Sprintf("%-12s", c.Kind)
	if r.Pretty {
		kind = color.MagentaString(kind)
	}
	line := fmt.Sprintf("%s %s", kind, c.Text)
	for i, p := range c.Pairs {
		line += fmt.Sprintf("\n%14s %d. %s = %s", "", i+1, p.Label, p.Probability)
	}
	return line + "\n"
}

// markup renders **bold** spans in pretty mode and strips the markers otherwise.
func (r *Renderer) markup(s string) string {
	if !r.Pretty {
		return boldMarkup.ReplaceAllString(s, "$1")
	}
	bold := color.New(color.Bold)
	return boldMarkup.ReplaceAllStringFunc(s, func(m string) string {
		return bold.Sprint(m[2 : len(m)-2])
	})
}
