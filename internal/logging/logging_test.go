package logging

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewLevelParsing(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"nonsense", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := New(tt.level, "json").GetLevel(); got != tt.want {
			t.Errorf("New(%q) level = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	id := NewRequestID()
	if id == "" {
		t.Fatal("empty request ID")
	}
	if other := NewRequestID(); other == id {
		t.Error("request IDs repeat")
	}

	ctx := ContextWithRequestID(context.Background(), id)
	if got := RequestIDFromContext(ctx); got != id {
		t.Errorf("round trip = %q, want %q", got, id)
	}
	if got := RequestIDFromContext(context.Background()); got != "" {
		t.Errorf("empty context returned %q", got)
	}
}
