package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

var (
	Debug   zerolog.Logger
	Scanner zerolog.Logger
	API     zerolog.Logger
	Enabled bool
)

func init() {
	// Only enable logging if STORVIZ_DEBUG environment variable is set
	if os.Getenv("STORVIZ_DEBUG") == "" {
		disable()
		return
	}

	// Open debug.log once for all loggers
	debugFile, err := os.OpenFile("debug.log", os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		// Fallback to stderr if we can't open the file
		Enable(zerolog.ConsoleWriter{Out: os.Stderr}, zerolog.DebugLevel)
		return
	}

	Enable(debugFile, zerolog.DebugLevel)
}

// Enable routes every logger to w at the given level
func Enable(w io.Writer, level zerolog.Level) {
	base := zerolog.New(w).Level(level).With().Timestamp().Logger()

	Debug = base.With().Str("component", "core").Logger()
	Scanner = base.With().Str("component", "scanner").Logger()
	API = base.With().Str("component", "api").Logger()
	Enabled = true
}

func disable() {
	Debug = zerolog.Nop()
	Scanner = zerolog.Nop()
	API = zerolog.Nop()
	Enabled = false
}
