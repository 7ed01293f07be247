package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const TimeFormat = "2006-01-02 15:04:05.999"

// AtomicLevel controls the level of every logger built by this package.
var AtomicLevel = zap.NewAtomicLevel()

// SetLevel changes the runtime log level, e.g. "debug" or "warn".
func SetLevel(level string) error {
	return AtomicLevel.UnmarshalText([]byte(level))
}

// New builds a console logger. The level is read from LOG_LEVEL and defaults to info.
func New() (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.Encoding = "console"
	config.Level = AtomicLevel
	_ = AtomicLevel.UnmarshalText([]byte(os.Getenv("LOG_LEVEL")))
	config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(TimeFormat)
	config.DisableStacktrace = true
	config.Sampling = nil
	return config.Build()
}

// MustNew is like New but panics on error.
func MustNew() *zap.Logger {
	logger, err := New()
	if err != nil {
		panic(err)
	}
	return logger
}
