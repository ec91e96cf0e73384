package logger

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/m3rciful/gatebot/core/buildinfo"
	coreconfig "github.com/m3rciful/gatebot/core/config"
)

const writerBufSize = 64 * 1024

var (
	initOnce sync.Once
	stopOnce sync.Once

	logWriter *asyncWriter
	logFile   io.Closer
	levelVar  slog.LevelVar

	debugSampler ratioSampler
	traceAll     bool

	// L is the base logger. It stays nil until InitLogger runs.
	L *slog.Logger

	// MIG logs database migration events.
	MIG *slog.Logger
	// TWire logs Telegram wiring steps.
	TWire *slog.Logger
)

// InitLogger installs the global structured logger. Only the first call has
// any effect.
func InitLogger(cfg *coreconfig.Config) error {
	initOnce.Do(func() {
		var lc coreconfig.LoggingConfig
		if cfg != nil {
			lc = cfg.Logging
		}
		levelVar.Set(parseLevel(lc.Level))
		keep, every := 1, 50
		if k, e, ok := parseRatio(lc.DebugSample); ok {
			keep, every = k, e
		}
		debugSampler.Set(keep, every)
		traceAll = truthy(os.Getenv("TRACE")) || truthy(os.Getenv("LOG_TRACE"))

		sinks := []io.Writer{os.Stdout}
		if f := openLogFile(lc.Dir, lc.BotFile); f != nil {
			sinks = append(sinks, f)
			logFile = f
		}
		logWriter = newAsyncWriter(sinks, writerBufSize)

		L = slog.New(newStructuredHandler(handlerConfig{
			level:    &levelVar,
			writer:   logWriter,
			format:   pickFormat(lc),
			keyOrder: pickKeyOrder(lc.KeysOrder),
		}))
		slog.SetDefault(L)
		MIG = Component("db.migrate")
		TWire = Component("tg.wire")

		Info(context.Background(), "app", "startup",
			slog.String("go_version", runtime.Version()),
			slog.String("build_version", buildinfo.Version),
			slog.String("build_commit", buildinfo.Commit),
			slog.String("build_time", buildinfo.Date),
			slog.String("cfg_profile", profileName(lc.Profile)),
		)
	})
	return nil
}

// Shutdown drains pending lines and closes the log file.
func Shutdown() error {
	var errs []error
	stopOnce.Do(func() {
		if logWriter != nil {
			errs = append(errs, logWriter.Close())
		}
		if logFile != nil {
			errs = append(errs, logFile.Close())
		}
	})
	return errors.Join(errs...)
}

func openLogFile(dir, name string) *os.File {
	dir, name = strings.TrimSpace(dir), strings.TrimSpace(name)
	if dir == "" || name == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("logger: create %s: %v", dir, err)
		return nil
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Printf("logger: open %s: %v", path, err)
		return nil
	}
	return f
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// pickFormat honours an explicit format and otherwise uses kv for the
// debug and dev profiles.
func pickFormat(lc coreconfig.LoggingConfig) logFormat {
	switch strings.ToLower(strings.TrimSpace(lc.Format)) {
	case "kv", "text", "pretty":
		return formatKV
	case "json":
		return formatJSON
	}
	switch profileName(lc.Profile) {
	case "debug", "dev":
		return formatKV
	}
	return formatJSON
}

func pickKeyOrder(raw string) []string {
	var order []string
	if raw = strings.TrimSpace(raw); raw != "default" {
		for _, k := range strings.Split(raw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				order = append(order, k)
			}
		}
	}
	if len(order) == 0 {
		return slices.Clone(defaultKeyOrder)
	}
	return order
}

func profileName(p string) string {
	if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
		return p
	}
	return "prod"
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// Component returns L tagged with component=name, or nil before InitLogger.
func Component(name string) *slog.Logger {
	if L == nil {
		return nil
	}
	if name = strings.TrimSpace(name); name == "" {
		return L
	}
	return L.With("component", name)
}

// LogEvent writes one record with the given event name. A nil logg falls
// back to the context logger; nothing is written before InitLogger.
func LogEvent(ctx context.Context, logg *slog.Logger, level slog.Level, event string, attrs ...slog.Attr) {
	if logg == nil {
		logg = FromContext(ctx)
	}
	if logg == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if event != "" {
		attrs = append([]slog.Attr{slog.String("event", event)}, attrs...)
	}
	logg.LogAttrs(ctx, level, "", attrs...)
}

func logAt(ctx context.Context, level slog.Level, component, event string, attrs []slog.Attr) {
	logg := Component(component)
	if logg == nil {
		if logg = FromContext(ctx); logg != nil && strings.TrimSpace(component) != "" {
			logg = logg.With("component", strings.TrimSpace(component))
		}
	}
	LogEvent(ctx, logg, level, event, attrs...)
}

func Debug(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelDebug, component, event, attrs)
}

func Info(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelInfo, component, event, attrs)
}

func Warn(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelWarn, component, event, attrs)
}

func Error(ctx context.Context, component, event string, attrs ...slog.Attr) {
	logAt(ctx, slog.LevelError, component, event, attrs)
}

// ShouldSampleDebug reports whether a high volume debug line should be
// written. TRACE=1 lets everything through.
func ShouldSampleDebug() bool {
	return traceAll || debugSampler.Allow()
}
