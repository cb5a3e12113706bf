// Package logging builds the zap logger described by the common.logging configuration.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	FormatJSON          = "json"
	FormatConsole       = "console"
	invalidLevelFormat  = "invalid logging level %q: %w"
	invalidFormatFormat = "invalid logging format %q (want json or console)"
)

// New returns a logger writing to stderr.
func New(level string, format string) (*zap.Logger, error) {
	return NewWithWriter(level, format, os.Stderr)
}

// NewWithWriter returns a logger writing to writer. Empty level and format select info and console.
func NewWithWriter(level string, format string, writer io.Writer) (*zap.Logger, error) {
	parsedLevel := zapcore.InfoLevel
	if trimmed := strings.TrimSpace(level); trimmed != "" {
		var err error
		parsedLevel, err = zapcore.ParseLevel(strings.ToLower(trimmed))
		if err != nil {
			return nil, fmt.Errorf(invalidLevelFormat, level, err)
		}
	}
	encoder, err := newEncoder(format)
	if err != nil {
		return nil, err
	}
	core := zapcore.NewCore(encoder, zapcore.AddSync(writer), parsedLevel)
	return zap.New(core), nil
}

func newEncoder(format string) (zapcore.Encoder, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatConsole:
		return zapcore.NewConsoleEncoder(encoderConfig), nil
	case FormatJSON:
		return zapcore.NewJSONEncoder(encoderConfig), nil
	default:
		return nil, fmt.Errorf(invalidFormatFormat, format)
	}
}
