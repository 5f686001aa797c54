package logging

import (
	"context"
	"testing"
)

func TestNewTraceID(t *testing.T) {
	id1 := NewTraceID()
	id2 := NewTraceID()

	if len(id1) != 16 {
		t.Errorf("expected 16 char ID, got %d: %s", len(id1), id1)
	}
	if id1 == id2 {
		t.Error("trace IDs should be unique")
	}
}

func TestWithSessionID(t *testing.T) {
	ctx := context.Background()

	ctx1 := WithSessionID(ctx, "01HZX")
	if got := SessionIDFromContext(ctx1); got != "01HZX" {
		t.Errorf("expected '01HZX', got '%s'", got)
	}

	ctx2 := WithSessionID(ctx, "")
	if id := SessionIDFromContext(ctx2); len(id) != 16 {
		t.Errorf("expected 16 char generated ID, got %d: %s", len(id), id)
	}
}

func TestSessionIDFromContextEmpty(t *testing.T) {
	if got := SessionIDFromContext(context.Background()); got != "" {
		t.Errorf("expected empty string for context without ID, got '%s'", got)
	}
}
