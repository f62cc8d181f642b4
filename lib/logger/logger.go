package logger

import (
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	envLocal    = "local"
	envDev      = "dev"
	envProd     = "prod"
	logFileName = "ticketdesk.log"
)

// SetupLogger writes to stdout for local runs and to <dir>/ticketdesk.log otherwise.
func SetupLogger(env, dir string) *slog.Logger {
	var out io.Writer = os.Stdout

	if env != envLocal {
		logPath := filepath.Join(dir, logFileName)
		logFile, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			log.Fatal("error opening log file: ", err)
		}
		log.Printf("env: %s; log file: %s", env, logPath)
		out = logFile
	}

	handler, err := NewHandler(env, out)
	if err != nil {
		log.Fatal(err)
	}
	return slog.New(handler)
}

func NewHandler(env string, out io.Writer) (slog.Handler, error) {
	switch env {
	case envLocal, envDev:
		return slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}), nil
	case envProd:
		return slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}), nil
	default:
		return nil, &InvalidEnvError{Env: env}
	}
}

type InvalidEnvError struct {
	Env string
}

func (e *InvalidEnvError) Error() string {
	return "invalid environment: " + e.Env
}

// ParseLevel maps "debug", "info", "warn" and "error"; anything else is error.
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelError
	}
	return level
}
