// Package logging configures process-wide log output and provides the
// redirectable diagnostic logger the loading steps report through.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/pjdon/cveureka/internal/config"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Setup tees standard log output into a rotating file when a log
// directory is configured. With no directory it leaves stderr-only
// logging in place.
func Setup(lc config.LogConfig) error {
	if lc.Directory == "" {
		return nil
	}
	if err := os.MkdirAll(lc.Directory, 0o755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(lc.Directory, "cveureka.log"),
		MaxSize:    lc.MaxSizeMB,
		MaxAge:     lc.MaxAgeDays,
		MaxBackups: lc.MaxBackups,
		Compress:   lc.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return nil
}
