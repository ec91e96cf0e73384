package logger

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"
)

// defaultKeyOrder fixes the position of well-known keys; the rest follow
// alphabetically.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type", "message_id", "handler", "cb_key",
	"op", "action", "target_id", "verdict", "reason", "outcome", "from", "to", "changed",
	"duration_ms", "count", "skipped", "backend",
	"username", "payload", "text_len",
	"mode", "listen", "public_url", "http_code", "db", "host", "port",
	"err", "err_code", "error_kind", "attempts", "backoff_ms", "stack",
}

// closedEnums lists keys whose values are dropped when unknown.
var closedEnums = map[string]map[string]struct{}{
	"verdict": setOf("exempt", "gated", "foreign_script", "blocked_term", "clean"),
	"outcome": setOf("deleted", "already_gone", "denied", "failed"),
}

func setOf(values ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(values))
	for _, v := range values {
		m[v] = struct{}{}
	}
	return m
}

func levelName(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "ERROR"
	case l >= slog.LevelWarn:
		return "WARN"
	case l >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}

// durationKey renames duration attributes so the unit is part of the key.
func durationKey(key string) string {
	switch {
	case key == "duration":
		return "duration_ms"
	case strings.HasSuffix(key, "_ms"):
		return key
	default:
		return key + "_ms"
	}
}

// plainValue converts an attribute into a JSON friendly scalar.
// ok is false when the attribute should be skipped.
func plainValue(key string, v slog.Value) (string, any, bool) {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return key, strings.TrimSpace(v.String()), true
	case slog.KindBool:
		return key, v.Bool(), true
	case slog.KindInt64:
		return key, v.Int64(), true
	case slog.KindUint64:
		if u := v.Uint64(); u <= math.MaxInt64 {
			return key, int64(u), true
		}
		return key, v.Uint64(), true
	case slog.KindFloat64:
		return key, v.Float64(), true
	case slog.KindDuration:
		return durationKey(key), RoundMS(v.Duration()).Milliseconds(), true
	case slog.KindTime:
		return key, v.Time().UTC().Format(time.RFC3339Nano), true
	}
	switch x := v.Any().(type) {
	case nil:
		return key, nil, false
	case error:
		return key, x.Error(), true
	case time.Duration:
		return durationKey(key), RoundMS(x).Milliseconds(), true
	case fmt.Stringer:
		return key, strings.TrimSpace(x.String()), true
	default:
		return key, fmt.Sprint(x), true
	}
}

// flatten walks attr, joining group names with dots, and calls emit for
// every leaf that survives normalization.
func flatten(prefix string, attr slog.Attr, emit func(string, any)) {
	key := attr.Key
	if prefix != "" {
		if key == "" {
			key = prefix
		} else {
			key = prefix + "." + key
		}
	}
	if attr.Value.Kind() == slog.KindGroup {
		for _, child := range attr.Value.Group() {
			flatten(key, child, emit)
		}
		return
	}
	if key == "" {
		return
	}
	if k, v, ok := plainValue(key, attr.Value); ok {
		emit(k, v)
	}
}

// finish applies the record level rules shared by both output formats.
func finish(rec map[string]any, msg string, keepFullRID bool) {
	if rid, _ := rec["rid"].(string); rid != "" {
		if short := CompactRID(rid); short != rid {
			if _, set := rec["rid_full"]; keepFullRID && !set {
				rec["rid_full"] = rid
			}
			rec["rid"] = short
		}
	}
	if ev, _ := rec["event"].(string); ev == "" {
		rec["event"] = msg
		if msg == "" {
			rec["event"] = "unknown"
		}
	}
	if c, _ := rec["component"].(string); c == "" {
		rec["component"] = "app"
	}
	if s, ok := rec["status"].(string); ok {
		rec["status"] = strings.ToLower(s)
	}
	for key, allowed := range closedEnums {
		raw, ok := rec[key]
		if !ok {
			continue
		}
		s, _ := raw.(string)
		s = strings.ToLower(s)
		if _, known := allowed[s]; known {
			rec[key] = s
		} else {
			delete(rec, key)
		}
	}
	for k, v := range rec {
		if v == nil || v == "" {
			delete(rec, k)
		}
	}
}
