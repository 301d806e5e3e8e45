package logging

import (
	"io"
	"log/slog"
	"strings"

	"github.com/willbeason/appointment-noshows/pkg/config"
)

// New returns a logger writing to w in the configured format. Unknown levels
// log at info.
func New(cfg config.Logging, w io.Writer) *slog.Logger {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.ToUpper(cfg.Level)))
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
