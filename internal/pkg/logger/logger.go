// Package logger builds the zap logger shared by the service. Debug mode
// writes coloured console lines to stdout; release mode writes JSON to stdout
// and, when a file is configured, to a lumberjack rotated log file.
package logger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ModeDebug   = "debug"
	ModeRelease = "release"

	defaultLogFilename   = "waterdist.log"
	defaultLogMaxSizeMB  = 100
	defaultLogMaxBackups = 7
	defaultLogMaxAgeDays = 30
)

// Options selects the output of the logger.
type Options struct {
	Mode       string `mapstructure:"mode"`
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// New builds a logger for options. A log file that cannot be opened falls
// back to stdout only, and the returned error says why.
func New(options Options) (*zap.Logger, error) {
	debug := strings.EqualFold(strings.TrimSpace(options.Mode), ModeDebug)
	level := parseLevel(options.Level, debug)
	encoderConfig := newEncoderConfig()

	if debug {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), newConsoleSyncer(os.Stdout), level)
		return zap.New(core, zap.AddCaller()), nil
	}

	encoder := zapcore.NewJSONEncoder(encoderConfig)
	stdout := zapcore.NewCore(encoder, newConsoleSyncer(os.Stdout), level)
	if strings.TrimSpace(options.Dir) == "" {
		return zap.New(stdout, zap.AddCaller()), nil
	}

	file, err := newFileWriteSyncer(options)
	if err != nil {
		return zap.New(stdout, zap.AddCaller()), err
	}
	return zap.New(zapcore.NewTee(stdout, zapcore.NewCore(encoder, file, level)), zap.AddCaller()), nil
}

func newEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.MessageKey = "message"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeDuration = zapcore.MillisDurationEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder
	encoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	return encoderConfig
}

func parseLevel(raw string, debug bool) zap.AtomicLevel {
	if raw = strings.TrimSpace(raw); raw != "" {
		if level, err := zapcore.ParseLevel(raw); err == nil {
			return zap.NewAtomicLevelAt(level)
		}
	}
	if debug {
		return zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return zap.NewAtomicLevelAt(zap.InfoLevel)
}

// consoleSyncer writes to a terminal or pipe. fsync on those fails with
// EINVAL or ENOTTY, which Sync ignores.
type consoleSyncer struct {
	*os.File
}

func newConsoleSyncer(f *os.File) zapcore.WriteSyncer {
	return consoleSyncer{File: f}
}

func (s consoleSyncer) Sync() error {
	err := s.File.Sync()
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) || errors.Is(err, syscall.ENOTSUP) {
		return nil
	}
	return err
}

func newFileWriteSyncer(options Options) (zapcore.WriteSyncer, error) {
	dir := strings.TrimSpace(options.Dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	filename := strings.TrimSpace(options.Filename)
	if filename == "" {
		filename = defaultLogFilename
	}
	path := filepath.Join(dir, filename)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	if err = f.Close(); err != nil {
		return nil, fmt.Errorf("close log file: %w", err)
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    positiveOr(options.MaxSizeMB, defaultLogMaxSizeMB),
		MaxBackups: positiveOr(options.MaxBackups, defaultLogMaxBackups),
		MaxAge:     positiveOr(options.MaxAgeDays, defaultLogMaxAgeDays),
		Compress:   options.Compress,
	}), nil
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}
