package obs

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	loggerMu sync.Mutex
	logger   *zerolog.Logger
)

// Logger returns the shared structured logger used across the service.
func Logger() *zerolog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}
	return logger
}

// SetLevel adjusts the global log level ("debug", "info", ...). Unknown
// levels fall back to info.
func SetLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil || parsed == zerolog.NoLevel {
		parsed = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(parsed)
}

// SwapWriterForTests redirects the shared logger and returns a restore
// function. Only intended for test use.
func SwapWriterForTests(w io.Writer) func() {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	prev := logger
	l := zerolog.New(w).With().Timestamp().Logger()
	logger = &l
	return func() {
		loggerMu.Lock()
		defer loggerMu.Unlock()
		logger = prev
	}
}
