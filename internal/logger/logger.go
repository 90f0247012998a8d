package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/alexanderramin/termplan/internal/config"
)

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// New builds the process logger: a console core on stderr plus, when
// cfg.File is set, a JSON core written through a rotating file.
// The TUI owns the terminal, so callers running it pass quietConsole to
// keep everything below error level off stderr.
func New(cfg config.LogConfig, quietConsole bool) (*zap.Logger, error) {
	return newWithConsole(cfg, quietConsole, os.Stderr)
}

func newWithConsole(cfg config.LogConfig, quietConsole bool, console io.Writer) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	consoleLevel := level
	if quietConsole {
		consoleLevel = zapcore.ErrorLevel
	}
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig()), zapcore.AddSync(console), consoleLevel),
	}

	if cfg.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     30,
			Compress:   true,
		})
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), fileWriter, level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zap.ErrorLevel)), nil
}
