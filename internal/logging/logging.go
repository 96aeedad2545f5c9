// Package logging centralizes zerolog setup the way cmd/pulse's
// internal/logging does: a package-level base logger configured once at
// startup, JSON in production and a colorized console writer for local
// development, with a per-process "component" field stamped on every line.
package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu            sync.RWMutex
	baseWriter    interface{} = os.Stderr
	baseComponent string
	baseLogger    = zerolog.New(os.Stderr).With().Timestamp().Logger()
)

// Config controls Init's output format and verbosity.
type Config struct {
	// Format is "json" or "console". Anything else defaults to console.
	Format string
	// Level is a zerolog level name (debug, info, warn, error). Defaults to info.
	Level string
	// Component is stamped on every log line, e.g. "dispatchd", "routing".
	Component string
}

// Init configures the global zerolog logger. Call once at process startup.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level)); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	var writer interface{ Write([]byte) (int, error) }
	if strings.ToLower(cfg.Format) == "json" {
		writer = os.Stderr
	} else {
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}
	baseWriter = writer

	builder := zerolog.New(writer).With().Timestamp()
	if cfg.Component != "" {
		builder = builder.Str("component", cfg.Component)
	}
	baseComponent = cfg.Component
	baseLogger = builder.Logger()
	log.Logger = baseLogger
}

// For returns a child logger scoped to a subsystem, e.g. logging.For("routing").
func For(subsystem string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger.With().Str("subsystem", subsystem).Logger()
}
