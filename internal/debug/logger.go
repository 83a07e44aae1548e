// Package debug builds the zap logger shared by the library and the CLI.
//
// Console output is split between stdout and stderr by severity. An optional
// file log receives everything at or above its own level. When the
// BEWEGUNG_DEBUG environment variable names a file, debug output is appended
// to it regardless of the configured file logger.
package debug

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPath is the environment variable that enables the debug file log.
const EnvPath = "BEWEGUNG_DEBUG"

// Level names.
const (
	LevelNone   = "none"
	LevelNormal = "normal"
	LevelDebug  = "debug"
)

// File modes.
const (
	ModeAppend    = "append"
	ModeOverwrite = "overwrite"
)

// LoggerConfig configures one logging destination.
type LoggerConfig struct {
	Level       string `yaml:"level"`
	Destination string `yaml:"destination,omitempty"`
	Mode        string `yaml:"mode,omitempty"`
}

// Validate checks level and mode names.
func (c *LoggerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Level, validation.In(LevelNone, LevelNormal, LevelDebug)),
		validation.Field(&c.Mode, validation.In(ModeAppend, ModeOverwrite)),
	)
}

// Config holds the console and file loggers.
type Config struct {
	File    LoggerConfig `yaml:"file"`
	Console LoggerConfig `yaml:"console"`
}

// Validate validates both loggers. A file logger with a level needs a
// destination.
func (c *Config) Validate() error {
	if err := c.Console.Validate(); err != nil {
		return fmt.Errorf("console: %w", err)
	}
	if err := c.File.Validate(); err != nil {
		return fmt.Errorf("file: %w", err)
	}
	if enabled(c.File.Level) && c.File.Destination == "" {
		return errors.New("file: destination is required when level is set")
	}
	return nil
}

// ApplyEnv switches the file logger to debug level at the path named by
// BEWEGUNG_DEBUG. It reports whether the variable was set.
func (c *Config) ApplyEnv() bool {
	path := os.Getenv(EnvPath)
	if path == "" {
		return false
	}
	c.File = LoggerConfig{Level: LevelDebug, Destination: path, Mode: ModeAppend}
	return true
}

// Prepare builds the logger. The returned close function flushes and closes
// the file log, if any.
func (c *Config) Prepare() (*zap.Logger, func() error, error) {
	return c.prepare(os.Stdout, os.Stderr)
}

func (c *Config) prepare(stdout, stderr io.Writer) (*zap.Logger, func() error, error) {
	ec := zap.NewDevelopmentEncoderConfig()
	ec.EncodeCaller = nil
	ec.EncodeLevel = zapcore.CapitalLevelEncoder

	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel
	})

	var consoleLP, consoleHP zapcore.Core
	if lowest, ok := minLevel(c.Console.Level); ok {
		consoleLP = zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lowest <= lvl && lvl < zapcore.ErrorLevel
			}))
		consoleHP = zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(stderr), highPriority)
	} else {
		consoleLP = zapcore.NewNopCore()
		consoleHP = zapcore.NewNopCore()
	}

	fileCore := zapcore.NewNopCore()
	closer := func() error { return nil }
	if lowest, ok := minLevel(c.File.Level); ok {
		f, err := open(c.File.Destination, c.File.Mode)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to access file log destination (%s): %w", c.File.Destination, err)
		}
		fileCore = zapcore.NewCore(zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
			zapcore.Lock(f), zap.NewAtomicLevelAt(lowest))
		closer = func() error {
			return multierr.Append(f.Sync(), f.Close())
		}
	}

	log := zap.New(zapcore.NewTee(consoleHP, consoleLP, fileCore))
	return log.Named("bewegung"), closer, nil
}

func open(path, mode string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
	}
	flags := os.O_CREATE | os.O_WRONLY
	if mode == ModeOverwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_APPEND
	}
	return os.OpenFile(path, flags, 0644)
}

func enabled(level string) bool {
	_, ok := minLevel(level)
	return ok
}

func minLevel(level string) (zapcore.Level, bool) {
	switch level {
	case LevelDebug:
		return zapcore.DebugLevel, true
	case LevelNormal:
		return zapcore.InfoLevel, true
	}
	return zapcore.InvalidLevel, false
}
