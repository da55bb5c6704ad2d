package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/kilianp07/cabmatch/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger = corelogger.NopLogger

// Options controls the process-wide log level and destination.
type Options struct {
	Level string
	// File additionally writes JSON logs to a rotated file when set.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

var (
	outMu  sync.RWMutex
	output io.Writer = os.Stdout
	file   *lumberjack.Logger
)

// Configure applies opts. Loggers created afterwards pick up the new output.
func Configure(opts Options) error {
	lvl := zerolog.InfoLevel
	if opts.Level != "" {
		var err error
		lvl, err = zerolog.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return fmt.Errorf("log level %q: %w", opts.Level, err)
		}
	}
	zerolog.SetGlobalLevel(lvl)

	outMu.Lock()
	defer outMu.Unlock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	output = os.Stdout
	if opts.File == "" {
		return nil
	}
	if dir := filepath.Dir(opts.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("log directory: %w", err)
		}
	}
	file = &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}
	return nil
}

// Close flushes and closes the rotated log file, if any.
func Close() error {
	outMu.Lock()
	defer outMu.Unlock()
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}

// New returns a Logger for the given component. The environment is detected via
// the APP_ENV variable.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// AccessWriter returns a writer for raw access log lines. Each line becomes
// one info entry tagged with component.
func AccessWriter(component string) io.Writer {
	dev := strings.ToLower(os.Getenv("APP_ENV")) == "dev"
	z := zerolog.New(writers(dev)).Level(zerolog.InfoLevel).With().Timestamp().Str("component", component).Logger()
	return accessWriter{log: z}
}

type accessWriter struct{ log zerolog.Logger }

func (w accessWriter) Write(p []byte) (int, error) {
	w.log.Info().Msg(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func writers(dev bool) io.Writer {
	outMu.RLock()
	defer outMu.RUnlock()
	var w io.Writer = output
	if dev {
		w = zerolog.ConsoleWriter{Out: output, TimeFormat: "15:04:05"}
	}
	if file != nil {
		return zerolog.MultiLevelWriter(w, file)
	}
	return w
}
