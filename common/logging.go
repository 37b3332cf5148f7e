package common

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var (
	loggerOnce sync.Once
	singleton  *log.Logger
)

func getLogger() *log.Logger {
	loggerOnce.Do(func() {
		singleton = log.NewWithOptions(os.Stderr, log.Options{
			ReportCaller:    true,
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          "oxy-quake",
		})
		singleton.SetLevel(log.InfoLevel)
		// Log* wrappers add one frame to every call.
		singleton.SetCallerOffset(1)
	})
	return singleton
}

// SetLogLevel sets the minimum level written by the engine logger.
// Accepted values are "debug", "info", "warn", "error" and "fatal"; anything else maps to info.
func SetLogLevel(level string) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = log.InfoLevel
	}
	getLogger().SetLevel(lvl)
}

// SetLogOutput redirects the engine logger, mostly for tests.
func SetLogOutput(w io.Writer) {
	getLogger().SetOutput(w)
}

func LogDebug(msg string, args ...any) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...any) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...any) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...any) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...any) {
	getLogger().Fatalf(msg, args...)
}
