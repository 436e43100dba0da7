// Package logging builds the service's structured JSON logger.
package logging

import (
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
)

// New returns a JSON logger writing to w. Every record carries the service
// name and hostname so logs from several instances can be told apart.
func New(service, level string, w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)})
	return slog.New(h).With(
		slog.String("service", service),
		slog.String("hostname", hostname()),
	)
}

// ParseLevel maps debug/info/warn/error to a slog level; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func hostname() string {
	if h, err := os.Hostname(); err == nil && h != "" {
		return h
	}
	// Fallback if os.Hostname() fails
	if addrs, _ := net.InterfaceAddrs(); len(addrs) > 0 {
		return addrs[0].String()
	}
	return "unknown-host"
}
