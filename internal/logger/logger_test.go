package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestSanitizePayloadMasksSensitiveKeys(t *testing.T) {
	payload := map[string]any{
		"id":  "bookkeeper",
		"Key": "secret",
		"nested": map[string]any{
			"channel_key": "secret",
			"lines":       []any{map[string]any{"password": "x", "description": "Czynsz"}},
		},
	}

	out := SanitizePayload(payload).(map[string]any)
	if out["Key"] != "******" {
		t.Fatalf("expected Key masked, got %v", out["Key"])
	}
	nested := out["nested"].(map[string]any)
	if nested["channel_key"] != "******" {
		t.Fatalf("expected channel_key masked, got %v", nested["channel_key"])
	}
	line := nested["lines"].([]any)[0].(map[string]any)
	if line["password"] != "******" || line["description"] != "Czynsz" {
		t.Fatalf("unexpected nested line %v", line)
	}
}

func TestErrorWritesErrorField(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, false)

	Error("commit failed", errors.New("boom"), Fields{"documentId": "doc-1", "password": "x"})
	Debug("hidden", nil)
	Warn("auth disabled", nil)

	out := buf.String()
	if !strings.Contains(out, "error=boom") || !strings.Contains(out, "documentId=doc-1") {
		t.Fatalf("unexpected log output %q", out)
	}
	if strings.Contains(out, "password=x") {
		t.Fatalf("password leaked into log output %q", out)
	}
	if !strings.Contains(out, "level=WARN") {
		t.Fatalf("expected warn line in %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug message written at info level: %q", out)
	}
}
