package render

import (
	"fmt"
	"io"
	"os"

	"github.com/joss/ddx/internal/session"
)

// Writer wraps an io.Writer with formatting utilities.
// Use this for direct-to-stdout writing without string building.
type Writer struct {
	out io.Writer
}

// NewWriter creates a Writer that writes to the given io.Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{out: w}
}

// Stdout returns a Writer that writes to os.Stdout.
func Stdout() *Writer {
	return NewWriter(os.Stdout)
}

// Stderr returns a Writer that writes to os.Stderr.
func Stderr() *Writer {
	return NewWriter(os.Stderr)
}

// Println writes formatted text with newline.
func (w *Writer) Println(format string, args ...any) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Block writes pre-rendered text as is.
func (w *Writer) Block(text string) {
	io.WriteString(w.out, text)
}

// Line writes a blank line.
func (w *Writer) Line() {
	fmt.Fprintln(w.out)
}

// StateIcon returns icon for a session state.
func StateIcon(state session.State) string {
	switch state {
	case session.Completed:
		return "✓"
	case session.Failed:
		return "✗"
	case session.Canceled:
		return "⏹"
	case session.Streaming:
		return "…"
	default:
		return "•"
	}
}
