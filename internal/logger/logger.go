// Package logger wires logrus with optional rotating file output.
package logger

import (
    "io"
    "os"
    "strings"

    "github.com/sirupsen/logrus"
    lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields aliases logrus.Fields so callers do not import logrus directly.
type Fields = logrus.Fields

// Config controls log level and the optional rotating log file.
type Config struct {
    Level      string
    File       string
    MaxSizeMB  int
    MaxBackups int
    MaxAgeDays int
}

// New builds a logrus logger from cfg. LOG_LEVEL overrides cfg.Level.
// When a file is configured, output goes to both stdout and a
// size-rotated file.
func New(cfg Config) *logrus.Logger {
    log := logrus.New()

    level := cfg.Level
    if v := os.Getenv("LOG_LEVEL"); v != "" {
        level = v
    }
    if lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level))); err == nil {
        log.SetLevel(lvl)
    } else {
        log.SetLevel(logrus.InfoLevel)
    }

    log.SetFormatter(&logrus.TextFormatter{
        FullTimestamp:   true,
        TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
    })

    if cfg.File != "" {
        rotator := &lumberjack.Logger{
            Filename:   cfg.File,
            MaxSize:    orDefault(cfg.MaxSizeMB, 50),
            MaxBackups: orDefault(cfg.MaxBackups, 3),
            MaxAge:     orDefault(cfg.MaxAgeDays, 14),
            Compress:   true,
        }
        log.SetOutput(io.MultiWriter(os.Stdout, rotator))
    }

    return log
}

// WithComponent tags every entry from a subsystem.
func WithComponent(log *logrus.Logger, component string) *logrus.Entry {
    return log.WithField("component", component)
}

func orDefault(v, def int) int {
    if v <= 0 {
        return def
    }
    return v
}
