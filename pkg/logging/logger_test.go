package logging

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLevels(t *testing.T) {
	cases := []struct {
		level        string
		debugEnabled bool
		infoEnabled  bool
	}{
		{"debug", true, true},
		{"info", false, true},
		{"warn", false, false},
		{"error", false, false},
		{"unknown", false, true}, // falls back to info
	}

	for _, tc := range cases {
		l := New(tc.level)
		require.NotNil(t, l)
		assert.Equal(t, tc.debugEnabled, l.Enabled(context.Background(), slog.LevelDebug), "level %s", tc.level)
		assert.Equal(t, tc.infoEnabled, l.Enabled(context.Background(), slog.LevelInfo), "level %s", tc.level)
	}
}

func TestDefault(t *testing.T) {
	l := Default()
	require.NotNil(t, l)
	assert.True(t, l.Enabled(context.Background(), slog.LevelInfo))
}

func TestWith(t *testing.T) {
	l := New("info")
	child := l.With("component", "test")
	require.NotNil(t, child)
	assert.NotSame(t, l, child)
}
