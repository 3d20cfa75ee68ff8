package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// NewLogger 按级别与格式构造 slog.Logger
// format: "text" | "json"
func NewLogger(level, format string, w io.Writer) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	opts := &slog.HandlerOptions{Level: lvl}

	var h slog.Handler
	switch strings.ToLower(format) {
	case "", "text":
		h = slog.NewTextHandler(w, opts)
	case "json":
		h = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", format)
	}
	return slog.New(h), nil
}

// Setup 构造 logger 并设为全局默认
func Setup(level, format string, w io.Writer) error {
	logger, err := NewLogger(level, format, w)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}
