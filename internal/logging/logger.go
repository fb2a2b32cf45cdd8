// Package logging provides categorized structured logging for codepilot.
// Each subsystem logs under its own named category so that a single run
// can be filtered per concern. Logging is a no-op until Initialize (or
// SetLogger in tests) installs a real zap logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category identifies a logging subsystem.
type Category string

const (
	CategoryBoot    Category = "boot"
	CategoryConfig  Category = "config"
	CategoryExtract Category = "extract"
	CategoryIndex   Category = "index"
	CategoryStore   Category = "store"
	CategoryRouter  Category = "router"
	CategoryTools   Category = "tools"
	CategoryLoop    Category = "loop"
	CategoryLLM     Category = "llm"
	CategoryWatcher Category = "watcher"
)

var (
	mu     sync.RWMutex
	root   = zap.NewNop()
	sugars = make(map[Category]*zap.SugaredLogger)
)

// Initialize builds the process-wide logger. When workspace is non-empty,
// log output goes to <workspace>/.pilot/logs/pilot.log; otherwise stderr.
// debug lowers the level to Debug.
func Initialize(workspace string, debug bool) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	if workspace != "" {
		logsDir := filepath.Join(workspace, ".pilot", "logs")
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return fmt.Errorf("create logs directory: %w", err)
		}
		cfg.OutputPaths = []string{filepath.Join(logsDir, "pilot.log")}
		cfg.ErrorOutputPaths = cfg.OutputPaths
	}

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	SetLogger(logger)
	Boot("logging initialized (workspace=%s debug=%v)", workspace, debug)
	return nil
}

// SetLogger installs a logger directly. Tests use this with zaptest loggers.
func SetLogger(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	root = l
	sugars = make(map[Category]*zap.SugaredLogger)
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// Get returns the sugared logger for a category.
func Get(c Category) *zap.SugaredLogger {
	mu.RLock()
	if s, ok := sugars[c]; ok {
		mu.RUnlock()
		return s
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if s, ok := sugars[c]; ok {
		return s
	}
	s := root.Named(string(c)).Sugar()
	sugars[c] = s
	return s
}

// Per-category convenience helpers. Info-level helpers carry the category
// name; Debug variants are for verbose traces.

func Boot(format string, args ...any)         { Get(CategoryBoot).Infof(format, args...) }
func Extract(format string, args ...any)      { Get(CategoryExtract).Infof(format, args...) }
func ExtractDebug(format string, args ...any) { Get(CategoryExtract).Debugf(format, args...) }
func Index(format string, args ...any)        { Get(CategoryIndex).Infof(format, args...) }
func IndexDebug(format string, args ...any)   { Get(CategoryIndex).Debugf(format, args...) }
func IndexWarn(format string, args ...any)    { Get(CategoryIndex).Warnf(format, args...) }
func Store(format string, args ...any)        { Get(CategoryStore).Infof(format, args...) }
func StoreDebug(format string, args ...any)   { Get(CategoryStore).Debugf(format, args...) }
func Router(format string, args ...any)       { Get(CategoryRouter).Infof(format, args...) }
func RouterDebug(format string, args ...any)  { Get(CategoryRouter).Debugf(format, args...) }
func Tools(format string, args ...any)        { Get(CategoryTools).Infof(format, args...) }
func ToolsDebug(format string, args ...any)   { Get(CategoryTools).Debugf(format, args...) }
func Loop(format string, args ...any)         { Get(CategoryLoop).Infof(format, args...) }
func LoopDebug(format string, args ...any)    { Get(CategoryLoop).Debugf(format, args...) }
func LoopWarn(format string, args ...any)     { Get(CategoryLoop).Warnf(format, args...) }
func LLM(format string, args ...any)          { Get(CategoryLLM).Infof(format, args...) }
func LLMDebug(format string, args ...any)     { Get(CategoryLLM).Debugf(format, args...) }
func Watcher(format string, args ...any)      { Get(CategoryWatcher).Infof(format, args...) }
func WatcherDebug(format string, args ...any) { Get(CategoryWatcher).Debugf(format, args...) }
