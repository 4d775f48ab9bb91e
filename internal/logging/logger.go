package logging

import (
	"io"
	"log/slog"
	"os"
)

// Setup installs the global slog logger: JSON to stdout, fanned out to any
// extra handlers such as the PostgreSQL sink.
func Setup(level slog.Level, extra ...slog.Handler) {
	slog.SetDefault(slog.New(newHandler(os.Stdout, level, extra...)))
}

func newHandler(w io.Writer, level slog.Level, extra ...slog.Handler) slog.Handler {
	var handler slog.Handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	if len(extra) > 0 {
		handler = NewMultiHandler(append([]slog.Handler{handler}, extra...)...)
	}
	return handler
}
