package logging

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop().Sugar()
)

// Init builds the process logger. Debug mode switches to the development
// config; otherwise only Info and above are written.
func Init(debug bool) error {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Set(l.Sugar())
	return nil
}

// Set replaces the process logger. Tests use it with zaptest/observer loggers.
func Set(l *zap.SugaredLogger) {
	mu.Lock()
	defer mu.Unlock()
	logger = l
}

// L returns the current logger.
func L() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// With returns a child logger carrying the given key/value pairs.
func With(args ...interface{}) *zap.SugaredLogger {
	return L().With(args...)
}

// Debugf prints messages only when debug logging is enabled
func Debugf(format string, args ...interface{}) {
	L().Debugf(format, args...)
}

// Infof prints messages always
func Infof(format string, args ...interface{}) {
	L().Infof(format, args...)
}

func Warnf(format string, args ...interface{}) {
	L().Warnf(format, args...)
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}
