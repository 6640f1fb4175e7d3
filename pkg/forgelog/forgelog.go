// Package forgelog provides the structured logger used across forgehttp:
// log/slog with a choice of a JSON handler or lmittmann/tint's colorized
// handler, selected by Options.Format, mirroring the teacher's
// pkg/svc/logger.go. New reads no environment variables itself.
package forgelog

import (
	"log/slog"
	"os"
	"strings"

	"github.com/lmittmann/tint"
)

// Options configures the logger New builds.
type Options struct {
	// Level is one of DEBUG, INFO, WARN, ERROR (case-insensitive). Defaults
	// to INFO for any other value, including the zero value.
	Level string

	// Format selects "json" for slog.NewJSONHandler or anything else for
	// tint's colorized text handler.
	Format string
}

// New builds a *slog.Logger per opts. It does not call slog.SetDefault --
// callers that want a process-wide default logger do that themselves,
// matching the teacher's pattern of keeping library packages side-effect
// free on import.
func New(opts Options) *slog.Logger {
	level := new(slog.LevelVar)
	level.Set(parseLevel(opts.Level))

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	}
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
