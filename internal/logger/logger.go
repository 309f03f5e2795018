package logger

import (
	"os"
	"strings"

	"github.com/rs/zerolog"

	"supportline-backend/internal/config"
)

// New builds the process-wide zerolog logger. JSON output by default;
// LOG_PRETTY switches to the console writer for local development.
func New(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var logger zerolog.Logger
	if cfg.LogPretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logger = zerolog.New(os.Stderr)
	}

	return logger.Level(level).With().Timestamp().Str("service", "supportline").Logger()
}
