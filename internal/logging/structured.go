// Package logging provides structured JSON logging for ddx components.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/joss/ddx/internal/config"
)

// Level represents log severity
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

func (l Level) rank() int {
	switch l {
	case LevelDebug:
		return 0
	case LevelInfo:
		return 1
	case LevelWarn:
		return 2
	case LevelError:
		return 3
	default:
		return 2
	}
}

// ParseLevel maps a level name to a Level, defaulting to warn.
func ParseLevel(s string) Level {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case LevelDebug:
		return LevelDebug
	case LevelInfo:
		return LevelInfo
	case LevelError:
		return LevelError
	default:
		return LevelWarn
	}
}

// Event represents a structured log event
type Event struct {
	Timestamp string                 `json:"ts"`
	Level     Level                  `json:"level"`
	Component string                 `json:"component"`
	Event     string                 `json:"event"`
	Session   string                 `json:"session,omitempty"`
	Duration  int64                  `json:"duration_ms,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

var (
	levelMu  sync.RWMutex
	minLevel Level
)

// SetLevel overrides the minimum level for every logger.
func SetLevel(l Level) {
	levelMu.Lock()
	minLevel = l
	levelMu.Unlock()
}

func currentLevel() Level {
	levelMu.RLock()
	l := minLevel
	levelMu.RUnlock()
	if l == "" {
		return ParseLevel(config.Env().LogLevel)
	}
	return l
}

// Logger provides structured logging
type Logger struct {
	component string
	session   string
	out       io.Writer
}

// New creates a new logger for a component
func New(component string) *Logger {
	return &Logger{component: component, out: os.Stderr}
}

// WithSession sets the session context
func (l *Logger) WithSession(session string) *Logger {
	return &Logger{component: l.component, session: session, out: l.out}
}

// WithOutput redirects events to w
func (l *Logger) WithOutput(w io.Writer) *Logger {
	return &Logger{component: l.component, session: l.session, out: w}
}

func (l *Logger) emit(e Event) {
	if e.Level.rank() < currentLevel().rank() {
		return
	}
	e.Timestamp = time.Now().UTC().Format(time.RFC3339)
	e.Component = l.component
	e.Session = l.session

	data, _ := json.Marshal(e)
	fmt.Fprintln(l.out, string(data))
}

// log emits a structured log event
func (l *Logger) log(level Level, event string, extra map[string]interface{}, err error) {
	e := Event{Level: level, Event: event, Extra: extra}
	if err != nil {
		e.Error = err.Error()
	}
	l.emit(e)
}

// Debug logs a debug event
func (l *Logger) Debug(event string, extra map[string]interface{}) {
	l.log(LevelDebug, event, extra, nil)
}

// Info logs an info event
func (l *Logger) Info(event string, extra map[string]interface{}) {
	l.log(LevelInfo, event, extra, nil)
}

// Warn logs a warning event
func (l *Logger) Warn(event string, extra map[string]interface{}, err error) {
	l.log(LevelWarn, event, extra, err)
}

// Error logs an error event
func (l *Logger) Error(event string, extra map[string]interface{}, err error) {
	l.log(LevelError, event, extra, err)
}

// TimedEvent logs an info event with duration
func (l *Logger) TimedEvent(event string, start time.Time, extra map[string]interface{}) {
	l.emit(Event{
		Level:    LevelInfo,
		Event:    event,
		Duration: time.Since(start).Milliseconds(),
		Extra:    extra,
	})
}
