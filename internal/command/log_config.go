package command

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/joeycumines/cliplay/internal/config"
	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"
)

// logFlags are the logging flags shared by commands that play scripts.
type logFlags struct {
	file   string
	level  string
	stderr bool
}

func (f *logFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.file, "log-file", "", "Write JSON logs to this file (rotated)")
	fs.StringVar(&f.level, "log-level", "", "Log level: debug, info, warn, error")
	fs.BoolVar(&f.stderr, "log-stderr", false, "Also write logs to stderr")
}

// logConfig is the resolved logging setup.
type logConfig struct {
	level     slog.Level
	file      string
	maxSizeMB int
	maxFiles  int
	stderr    bool
}

// resolveLogConfig applies flag, then config (with env overrides), then
// default for every setting. cfg may be nil.
func resolveLogConfig(f logFlags, cfg *config.Config) (logConfig, error) {
	schema := config.DefaultSchema()
	lc := logConfig{
		file:      f.file,
		maxSizeMB: schema.ResolveInt(cfg, "", config.KeyLogMaxSizeMB),
		maxFiles:  schema.ResolveInt(cfg, "", config.KeyLogMaxFiles),
		stderr:    f.stderr || schema.ResolveBool(cfg, "", config.KeyLogStderr),
	}

	levelStr := f.level
	if levelStr == "" {
		levelStr = schema.Resolve(cfg, config.KeyLogLevel)
	}
	level, err := parseLevel(levelStr)
	if err != nil {
		return lc, err
	}
	lc.level = level

	if lc.file == "" {
		lc.file = schema.Resolve(cfg, config.KeyLogFile)
	}
	if lc.maxSizeMB <= 0 {
		lc.maxSizeMB = 10
	}
	// Zero backups is valid: lumberjack then keeps every rotated file.
	if lc.maxFiles < 0 {
		lc.maxFiles = 5
	}
	return lc, nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level: %s", s)
	}
}

// newLogger builds the logger for one run. The returned closer releases the
// log file and must always be called.
func (lc logConfig) newLogger(stderr io.Writer) (*slog.Logger, io.Closer, error) {
	opts := &slog.HandlerOptions{Level: lc.level}
	var (
		handlers []slog.Handler
		closer   io.Closer = nopCloser{}
	)

	if lc.file != "" {
		// lumberjack opens lazily; open once here so a bad path fails the
		// command instead of silently dropping logs.
		if err := os.MkdirAll(filepath.Dir(lc.file), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(lc.file, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %s: %w", lc.file, err)
		}
		_ = f.Close()

		lj := &lumberjack.Logger{
			Filename:   lc.file,
			MaxSize:    lc.maxSizeMB,
			MaxBackups: lc.maxFiles,
		}
		handlers = append(handlers, slog.NewJSONHandler(lj, opts))
		closer = lj
	}
	if lc.stderr {
		handlers = append(handlers, slog.NewTextHandler(stderr, opts))
	}

	var h slog.Handler
	switch len(handlers) {
	case 0:
		h = slog.DiscardHandler
	case 1:
		h = handlers[0]
	default:
		h = slogmulti.Fanout(handlers...)
	}
	return slog.New(h).With(slog.String("run_id", uuid.NewString())), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
