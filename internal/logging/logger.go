package logging

import (
	"log/slog"
	"os"
)

// redactedKeys never reach a log sink. Reporter identity is confidential even
// from operators.
var redactedKeys = map[string]bool{
	"reporter_id":     true,
	"reporter_digest": true,
	"principal_id":    true,
}

// Level returns the stdout level for the given APP_ENV.
func Level(appEnv string) slog.Level {
	if appEnv == "development" {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// NewStdoutHandler writes JSON records to stdout with confidential keys removed.
func NewStdoutHandler(level slog.Level) slog.Handler {
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if redactedKeys[a.Key] {
				return slog.Attr{}
			}
			return a
		},
	})
}

// Setup initializes the global slog logger with JSON output to stdout.
func Setup(appEnv string) {
	slog.SetDefault(slog.New(NewStdoutHandler(Level(appEnv))))
}
