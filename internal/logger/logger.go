package logger

import (
	"os"

	"go.uber.org/zap"
)

var Log *zap.Logger

// Init initializes the global logger. Production builds emit JSON,
// everything else uses the human-readable development encoder.
func Init() {
	var err error

	if os.Getenv("ENV") == "production" {
		Log, err = zap.NewProduction()
	} else {
		Log, err = zap.NewDevelopment()
	}

	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	zap.ReplaceGlobals(Log)
}

// L returns the global logger, initializing it on first use.
func L() *zap.Logger {
	if Log == nil {
		Init()
	}

	return Log
}
