package cli

import (
	"io"
	"log/slog"

	"github.com/mesh-intelligence/keeper/pkg/types"
)

// newLogger builds the process logger from cfg. Config validation has
// already rejected unknown levels and formats.
func newLogger(cfg types.Config, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == types.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
