// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"

	"kopi-store/config"
)

// Setup points the global logger at stderr. Format "auto" picks the
// console writer on a terminal and JSON lines otherwise.
func Setup(cfg config.LogConfig) {
	log.Logger = New(os.Stderr, cfg, term.IsTerminal(int(os.Stderr.Fd())))
}

func New(w io.Writer, cfg config.LogConfig, isTerminal bool) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	console := cfg.Format == "console" || (cfg.Format != "json" && isTerminal)
	if console {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Caller().Logger()
}
