package logger

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"
)

type Fields map[string]any

var sensitiveKeys = map[string]struct{}{
	"password":      {},
	"key":           {},
	"channelkey":    {},
	"authorization": {},
	"keyhash":       {},
	"dsn":           {},
	"databasedsn":   {},
}

var current atomic.Pointer[slog.Logger]

func init() {
	current.Store(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

// Setup replaces the process logger. Debug enables Debug-level output.
func Setup(w io.Writer, debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	current.Store(l)
	slog.SetDefault(l)
}

func Debug(message string, fields Fields) {
	current.Load().Debug(message, attrs(fields)...)
}

func Info(message string, fields Fields) {
	current.Load().Info(message, attrs(fields)...)
}

func Warn(message string, fields Fields) {
	current.Load().Warn(message, attrs(fields)...)
}

func Error(message string, err error, fields Fields) {
	base := Fields{}
	for k, v := range fields {
		base[k] = v
	}
	if err != nil {
		base["error"] = err.Error()
	}

	current.Load().Error(message, attrs(base)...)
}

func SanitizePayload(payload any) any {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "<unavailable>"
	}

	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return "<unavailable>"
	}

	return sanitizeValue(data)
}

func attrs(fields Fields) []any {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		if isSensitiveKey(k) {
			out = append(out, slog.String(k, "******"))
			continue
		}
		out = append(out, slog.Any(k, fieldValue(fields[k])))
	}
	return out
}

// fieldValue renders nested structures as JSON so they stay on one line.
func fieldValue(v any) any {
	switch v.(type) {
	case map[string]any, []any:
		b, err := json.Marshal(sanitizeValue(v))
		if err != nil {
			return "<unavailable>"
		}
		return string(b)
	default:
		return v
	}
}

func sanitizeValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for key, inner := range typed {
			if isSensitiveKey(key) {
				out[key] = "******"
				continue
			}
			out[key] = sanitizeValue(inner)
		}
		return out
	case []any:
		out := make([]any, 0, len(typed))
		for _, item := range typed {
			out = append(out, sanitizeValue(item))
		}
		return out
	default:
		return value
	}
}

func isSensitiveKey(key string) bool {
	normalized := strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(strings.TrimSpace(key), "-", ""), "_", ""))
	_, ok := sensitiveKeys[normalized]
	return ok
}
