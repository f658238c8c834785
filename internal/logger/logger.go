package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	levelVar slog.LevelVar
	mu       sync.RWMutex
	base     *slog.Logger
)

func init() {
	levelVar.Set(slog.LevelInfo)
	base = build(os.Stdout)
}

func build(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &levelVar}))
}

// SetOutput replaces the log destination.
func SetOutput(w io.Writer) {
	mu.Lock()
	base = build(w)
	mu.Unlock()
}

// SetFile routes logs to a size-rotated file while still echoing to stdout.
func SetFile(path string, maxSizeMB, maxBackups int) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if maxSizeMB <= 0 {
		maxSizeMB = 50
	}
	if maxBackups <= 0 {
		maxBackups = 5
	}
	rotated := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	SetOutput(io.MultiWriter(os.Stdout, rotated))
}

// SetLevel accepts debug/info/warn/error; anything else falls back to info.
func SetLevel(level string) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn", "warning":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
}

func active() *slog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	if l != nil {
		return l
	}
	mu.Lock()
	defer mu.Unlock()
	if base == nil {
		base = build(os.Stdout)
	}
	return base
}

func Debugf(format string, v ...any) { active().Debug(fmt.Sprintf(format, v...)) }

func Infof(format string, v ...any) { active().Info(fmt.Sprintf(format, v...)) }

func Warnf(format string, v ...any) { active().Warn(fmt.Sprintf(format, v...)) }

func Errorf(format string, v ...any) { active().Error(fmt.Sprintf(format, v...)) }
