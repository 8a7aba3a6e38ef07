// Package logging initializes the zerolog logger, reproducing
// internal/util/init.go's InitLogger/UpdateLogLevel shape: pretty console
// output on a terminal, JSON lines otherwise, level driven by config.
package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Init returns a new logger: pretty console output when stdout is a
// terminal, JSON lines otherwise.
func Init() *zerolog.Logger {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var logger zerolog.Logger
	if isTerminal() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().
			Timestamp().
			Caller().
			Logger()
	} else {
		logger = zerolog.New(os.Stdout).
			With().
			Timestamp().
			Str("service", "evmload").
			Logger()
	}

	return &logger
}

// UpdateLevel parses levelStr and sets the global zerolog level, defaulting
// to info on an empty or unrecognized value.
func UpdateLevel(levelStr string, logger *zerolog.Logger) {
	if levelStr == "" {
		levelStr = "info"
	}

	var level zerolog.Level
	switch strings.ToLower(levelStr) {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn", "warning":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
		logger.Warn().Str("configured_level", levelStr).Msg("unknown log level, defaulting to info")
	}

	zerolog.SetGlobalLevel(level)
	logger.Info().Str("level", level.String()).Msg("log level set")
}

func isTerminal() bool {
	fileInfo, _ := os.Stdout.Stat()
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
