package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	if logger == nil {
		t.Fatal("newLogger() returned nil")
	}

	logger.Info("test message")

	if buf.Len() == 0 {
		t.Error("logger should have written output")
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{
			name:    "info at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Info("visible") },
			wantLog: true,
		},
		{
			name:    "debug at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Debug("hidden") },
			wantLog: false,
		},
		{
			name:    "debug at debug level",
			level:   log.DebugLevel,
			logFunc: func(l *log.Logger) { l.Debug("visible") },
			wantLog: true,
		},
		{
			name:    "warn at info level",
			level:   log.InfoLevel,
			logFunc: func(l *log.Logger) { l.Warn("visible") },
			wantLog: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.level)

			tt.logFunc(logger)

			gotLog := buf.Len() > 0
			if gotLog != tt.wantLog {
				t.Errorf("logged = %v, want %v (output: %q)", gotLog, tt.wantLog, buf.String())
			}
		})
	}
}

func TestProgress(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)

	prog := newProgress(logger)
	time.Sleep(10 * time.Millisecond)
	prog.done("Composed 2 figures")

	out := buf.String()
	if !strings.Contains(out, "Composed 2 figures") {
		t.Errorf("output should contain the message, got %q", out)
	}
}

func TestContextLogger(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		var buf bytes.Buffer
		logger := newLogger(&buf, log.InfoLevel)

		ctx := withLogger(context.Background(), logger)

		got := loggerFromContext(ctx)
		if got != logger {
			t.Error("loggerFromContext() should return the stored logger")
		}
	})

	t.Run("missing logger falls back to default", func(t *testing.T) {
		got := loggerFromContext(context.Background())
		if got == nil {
			t.Fatal("loggerFromContext() should never return nil")
		}
		if got != log.Default() {
			t.Error("loggerFromContext() should fall back to log.Default()")
		}
	})

	t.Run("nil logger stored", func(t *testing.T) {
		ctx := withLogger(context.Background(), nil)

		got := loggerFromContext(ctx)
		if got == nil {
			t.Fatal("loggerFromContext() should never return nil")
		}
	})
}
