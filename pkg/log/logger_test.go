package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func newBufferLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewLogger(WithLevel(level), WithFormatter(f), WithOutput(NewWriterOutput(buf))), buf
}

func TestLevelGating(t *testing.T) {
	l, buf := newBufferLogger(WarnLevel, &TextFormatter{DisableTimestamp: true})
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output: %q", buf.String())
	}
	l.SetLevel(DebugLevel)
	l.Debug("now visible")
	if !strings.Contains(buf.String(), "now visible") {
		t.Fatalf("SetLevel did not apply: %q", buf.String())
	}
}

func TestWithFieldsText(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	l.WithComponent("expiry").With(Str("topic", "orders")).Info("sweep", Int("n", 3))
	got := buf.String()
	want := "INFO  sweep component=expiry n=3 topic=orders\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestChildSharesLevel(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	child := l.With(Str("k", "v"))
	l.SetLevel(ErrorLevel)
	child.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("child should follow parent level, got %q", buf.String())
	}
}

func TestJSONFormatter(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &JSONFormatter{})
	l.WithError(errors.New("boom")).Error("failed", Int64("seq", 42))
	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if m["msg"] != "failed" || m["level"] != "ERROR" || m["error"] != "boom" || m["seq"] != float64(42) {
		t.Fatalf("unexpected json: %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": DebugLevel, "INFO": InfoLevel, "": InfoLevel, "warning": WarnLevel, "error": ErrorLevel} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("ParseLevel(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestApplyConfigRejectsUnknownFormat(t *testing.T) {
	if _, err := ApplyConfig(&Config{Format: "xml"}); err == nil {
		t.Fatalf("expected error")
	}
	if _, err := ApplyConfig(nil); err != nil {
		t.Fatalf("nil config: %v", err)
	}
}

func TestRedactionAndSampling(t *testing.T) {
	buf := &bytes.Buffer{}
	l := NewLogger(WithFormatter(&TextFormatter{DisableTimestamp: true}), WithOutput(NewWriterOutput(buf))).(*BaseLogger)
	l.slogLogger = slog.New(newBridgeHandler(l).withRedactions([]string{"secret"}).withSampler(1, 2))

	for i := 0; i < 4; i++ {
		l.Info("tick", Str("secret", "hunter2"))
	}
	out := buf.String()
	if strings.Contains(out, "hunter2") {
		t.Fatalf("secret leaked: %q", out)
	}
	// first record passes, then records 1 and 3 of the remainder
	if got := strings.Count(out, "tick"); got != 3 {
		t.Fatalf("sampled %d lines, want 3: %q", got, out)
	}
}

func TestToStdLogger(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	std := ToStdLogger(l, WarnLevel)
	std.Print("pebble says hi")
	if got := buf.String(); got != "WARN  pebble says hi\n" {
		t.Fatalf("got %q", got)
	}
}
