package logger

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"WARN":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"noise": slog.LevelInfo,
	}
	for in, want := range cases {
		require.Equal(t, want, parseLevel(in).Level(), "level %q", in)
	}
}
