// Package logger is the process-wide structured logger. Output goes to a
// rotating file under the config directory, and to stderr as well in debug mode.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/artyomka101/appforphone/internal/constants"
)

// Logger stays nil until Init or InitWriter; the level helpers are no-ops then.
var Logger *log.Logger

var filePath string

type Config struct {
	Debug     bool
	ConfigDir string
	// Stderr mirrors records to stderr without raising the level
	Stderr bool
}

// Path is the log file written by Init, empty when logging to a plain writer
func Path() string {
	return filePath
}

func Init(cfg Config) error {
	dir := filepath.Join(cfg.ConfigDir, "logs")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	filePath = filepath.Join(dir, constants.AppName+".log")

	sink := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    5, // MB
		MaxBackups: constants.MaxBackups,
		MaxAge:     30,
		Compress:   true,
	}

	var w io.Writer = sink
	if cfg.Debug || cfg.Stderr {
		w = io.MultiWriter(os.Stderr, sink)
	}

	opts := log.Options{
		Prefix:          constants.AppName,
		ReportTimestamp: true,
		Level:           log.WarnLevel,
	}
	if cfg.Debug {
		opts.Level = log.DebugLevel
		opts.ReportCaller = true
	}
	Logger = log.NewWithOptions(w, opts)
	return nil
}

// InitWriter sends records at or above level to w
func InitWriter(w io.Writer, level log.Level) {
	filePath = ""
	Logger = log.NewWithOptions(w, log.Options{Prefix: constants.AppName, Level: level})
}

func emit(level log.Level, msg string, keyvals []interface{}) {
	if Logger == nil {
		return
	}
	Logger.Log(level, msg, keyvals...)
}

func Debug(msg string, keyvals ...interface{}) { emit(log.DebugLevel, msg, keyvals) }

func Info(msg string, keyvals ...interface{}) { emit(log.InfoLevel, msg, keyvals) }

func Warn(msg string, keyvals ...interface{}) { emit(log.WarnLevel, msg, keyvals) }

func Error(msg string, keyvals ...interface{}) { emit(log.ErrorLevel, msg, keyvals) }
